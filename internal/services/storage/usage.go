package storage

import "github.com/dustin/go-humanize"

// DefaultQuota mirrors the roughly 5 MB budget of a browser storage area
const DefaultQuota uint64 = 5 * humanize.MiByte

// Usage describes how much space the stored documents take
type Usage struct {
	Documents int    `json:"documents"`
	Used      uint64 `json:"used"`
	Quota     uint64 `json:"quota"`
}

// Available returns the bytes left under the quota
func (u Usage) Available() uint64 {
	if u.Used >= u.Quota {
		return 0
	}
	return u.Quota - u.Used
}

// UsedHuman formats Used, e.g. "1.2 KiB"
func (u Usage) UsedHuman() string {
	return humanize.IBytes(u.Used)
}

// AvailableHuman formats Available
func (u Usage) AvailableHuman() string {
	return humanize.IBytes(u.Available())
}

// Usage sums key and value sizes of every document against quota
func (s *Store) Usage(quota uint64) (Usage, error) {
	docs, err := s.Snapshot()
	if err != nil {
		return Usage{}, err
	}
	u := Usage{Documents: len(docs), Quota: quota}
	for k, v := range docs {
		u.Used += uint64(len(k) + len(v))
	}
	return u, nil
}
