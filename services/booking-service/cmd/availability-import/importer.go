package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/Savotageofficial/capsule/services/booking-service/internal/model"
	"gopkg.in/yaml.v3"
)

// scheduleFile is the YAML layout accepted by the importer:
//
//	doctors:
//	  doc-1:
//	    monday:
//	      - {start: "09:00", end: "12:00"}
type scheduleFile struct {
	Doctors map[string]map[string][]slotYAML `yaml:"doctors"`
}

type slotYAML struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type doctorSchedule struct {
	DoctorID string
	Days     model.WeeklyAvailability
}

// parseSchedules decodes and validates every doctor in the file. Problems for
// all doctors are reported together so a bad file is fixed in one pass.
func parseSchedules(r io.Reader) ([]doctorSchedule, error) {
	var f scheduleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	if len(f.Doctors) == 0 {
		return nil, errors.New("schedule lists no doctors")
	}

	ids := make([]string, 0, len(f.Doctors))
	for id := range f.Doctors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var (
		out  []doctorSchedule
		errs []error
	)
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, errors.New("empty doctor id"))
			continue
		}
		days, err := toAvailability(f.Doctors[id])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		out = append(out, doctorSchedule{DoctorID: id, Days: days})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func toAvailability(raw map[string][]slotYAML) (model.WeeklyAvailability, error) {
	w := model.WeeklyAvailability{}
	for name, slots := range raw {
		day, err := model.ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		for _, s := range slots {
			slot, err := model.NewTimeSlot(s.Start, s.End)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", day, err)
			}
			if err := w.AddSlot(day, slot); err != nil {
				return nil, err
			}
		}
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

type importer struct {
	baseURL string
	token   string
	client  *http.Client
}

// push replaces one doctor's availability through the booking API.
func (im *importer) push(ctx context.Context, s doctorSchedule) error {
	body, err := json.Marshal(map[string]any{"days": s.Days})
	if err != nil {
		return err
	}
	endpoint := strings.TrimRight(im.baseURL, "/") + "/api/v1/doctors/" + url.PathEscape(s.DoctorID) + "/availability"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+im.token)

	resp, err := im.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr)
		return fmt.Errorf("%s: status=%d %s", s.DoctorID, resp.StatusCode, apiErr.Error)
	}
	return nil
}
