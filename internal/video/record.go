package video

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is the metadata collected for a single recording. The JSON form
// is the wire contract expected by the registry's register endpoint.
type Record struct {
	FileName      string  `json:"video_file"`
	Channel       int     `json:"channel"`
	Date          string  `json:"data_video"`
	Time          string  `json:"hora_video"`
	SizeKb        float64 `json:"tamanho"`
	Duration      int     `json:"duracao"`
	DirectoryPath string  `json:"path_arquivo"`

	// ProbeFailed is set when the duration could not be read and Duration
	// has been degraded to zero. It is never sent to the registry, which
	// only understands "0".
	ProbeFailed bool `json:"-"`
}

type wireRecord struct {
	FileName      string  `json:"video_file"`
	Channel       int     `json:"channel"`
	Date          string  `json:"data_video"`
	Time          string  `json:"hora_video"`
	SizeKb        float64 `json:"tamanho"`
	Duration      string  `json:"duracao"`
	DirectoryPath string  `json:"path_arquivo"`
}

// MarshalJSON encodes the duration as a string of an integer, which is
// what the registry expects.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRecord{
		FileName:      r.FileName,
		Channel:       r.Channel,
		Date:          r.Date,
		Time:          r.Time,
		SizeKb:        r.SizeKb,
		Duration:      strconv.Itoa(r.Duration),
		DirectoryPath: r.DirectoryPath,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var wire wireRecord
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	duration := 0
	if wire.Duration != "" {
		d, err := strconv.Atoi(wire.Duration)
		if err != nil {
			return fmt.Errorf("duracao %q is not an integer: %w", wire.Duration, err)
		}
		duration = d
	}

	*r = Record{
		FileName:      wire.FileName,
		Channel:       wire.Channel,
		Date:          wire.Date,
		Time:          wire.Time,
		SizeKb:        wire.SizeKb,
		Duration:      duration,
		DirectoryPath: wire.DirectoryPath,
	}
	return nil
}

func (r Record) String() string {
	return fmt.Sprintf("Record{file=%s channel=%d at=%s %s duration=%ds}", r.FileName, r.Channel, r.Date, r.Time, r.Duration)
}
