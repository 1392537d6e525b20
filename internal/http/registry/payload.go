package registry

import (
	"encoding/json"

	"github.com/hbomb79/Sectrans/internal/video"
)

// UploadPayload is the body of a register request for a single car.
type UploadPayload struct {
	CarID     json.Number    `json:"carro"`
	CompanyID json.Number    `json:"empresa"`
	ServerID  json.Number    `json:"servidor"`
	Videos    []video.Record `json:"videos"`
}

// FormatPayload assembles the upload body for one car. The videos slice is
// used as-is; a nil slice is replaced with an empty one so the registry
// always receives an array.
func FormatPayload(carID json.Number, companyID json.Number, serverID json.Number, videos []video.Record) UploadPayload {
	if videos == nil {
		videos = []video.Record{}
	}

	return UploadPayload{
		CarID:     carID,
		CompanyID: companyID,
		ServerID:  serverID,
		Videos:    videos,
	}
}
