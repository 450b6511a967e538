package mobilelink

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"

	"github.com/nerrad567/genlink-bridge/internal/generator"
)

// apparatus is the union of the v1 and v2 listing item fields.
type apparatus struct {
	ID              string `mapstructure:"apparatusId"`
	Name            string `mapstructure:"name"`
	Model           string `mapstructure:"modelNumber"`
	SerialNumber    string `mapstructure:"serialNumber"`
	FirmwareVersion string `mapstructure:"firmwareVersion"`
	Description     string `mapstructure:"description"`
	Connected       bool   `mapstructure:"isConnected"`
	SignalStrength  string `mapstructure:"signalStrength"`
	BatteryVoltage  string `mapstructure:"batteryVoltage"`

	// v1
	Status *indicatorLights `mapstructure:"status"`

	// v2
	StatusCode int `mapstructure:"apparatusStatus"`
}

type indicatorLights struct {
	Green  bool `mapstructure:"green"`
	Yellow bool `mapstructure:"yellow"`
	Red    bool `mapstructure:"red"`
	Blue   bool `mapstructure:"blue"`
}

// decodeApparatusList parses a listing response body and tags every entry with kind.
//
// Only a body that is not a JSON array fails. Items that cannot be decoded
// are left out and returned in skipped so the rest of the account still updates.
func decodeApparatusList(r io.Reader, kind generator.Kind) (devices []generator.RawStatus, skipped []error, err error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var items []json.RawMessage
	if err := dec.Decode(&items); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}

	devices = make([]generator.RawStatus, 0, len(items))
	for i, raw := range items {
		a, err := decodeItem(raw)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		devices = append(devices, a.toRawStatus(kind))
	}
	return devices, skipped, nil
}

func decodeItem(raw json.RawMessage) (apparatus, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var item map[string]any
	if err := dec.Decode(&item); err != nil {
		return apparatus{}, err
	}
	if item == nil {
		return apparatus{}, errors.New("null item")
	}
	return decodeApparatus(item)
}

func decodeApparatus(item map[string]any) (apparatus, error) {
	var a apparatus
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &a,
	})
	if err != nil {
		return a, err
	}
	if err := dec.Decode(item); err != nil {
		return a, err
	}
	if a.ID == "" {
		return a, errors.New("missing apparatusId")
	}
	return a, nil
}

func (a apparatus) toRawStatus(kind generator.Kind) generator.RawStatus {
	raw := generator.RawStatus{
		Kind:            kind,
		VendorID:        a.ID,
		Name:            a.Name,
		Model:           a.Model,
		SerialNumber:    a.SerialNumber,
		FirmwareVersion: a.FirmwareVersion,
		Description:     a.Description,
		Connected:       a.Connected,
		SignalStrength:  a.SignalStrength,
		BatteryVoltage:  a.BatteryVoltage,
	}

	switch kind {
	case generator.KindFlags:
		var f generator.FlagStatus
		if a.Status != nil {
			f = generator.FlagStatus{
				Green:  a.Status.Green,
				Yellow: a.Status.Yellow,
				Red:    a.Status.Red,
				Blue:   a.Status.Blue,
			}
		}
		raw.Flags = &f
	default:
		raw.Code = &generator.CodeStatus{Code: a.StatusCode}
	}
	return raw
}
