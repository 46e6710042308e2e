// Package message holds the wire format for location fixes shared by the
// MQTT subscriber and the HTTP upload endpoint.
package message

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nandanugg/region-notifier/module/core/domain"
)

const MaxBatchSize = 500

type Fix struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	// Timestamp is unix milliseconds, as reported by the device.
	Timestamp int64 `json:"timestamp" validate:"gt=0"`
}

// Batch mirrors a background task delivery: several fixes oldest first.
type Batch struct {
	Locations []Fix `json:"locations" validate:"required,min=1,max=500,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (f *Fix) Validate() error {
	if err := validate.Struct(f); err != nil {
		return describe(err)
	}
	return nil
}

func (b *Batch) Validate() error {
	if err := validate.Struct(b); err != nil {
		return describe(err)
	}
	return nil
}

func (f *Fix) ToDomain(source domain.FixSource) domain.Fix {
	return domain.Fix{
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
		Timestamp: time.UnixMilli(f.Timestamp),
		Source:    source,
	}
}

func describe(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return fmt.Errorf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
}
