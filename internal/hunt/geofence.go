package hunt

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// ID identifies a geofence. It decodes from either a JSON string or a JSON
// number so hand-written data files may use either.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("geofence id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Compare orders ids numerically when both are integers and lexically
// otherwise, so "9" sorts before "10".
func (id ID) Compare(other ID) int {
	a, errA := strconv.ParseInt(string(id), 10, 64)
	b, errB := strconv.ParseInt(string(other), 10, 64)
	if errA == nil && errB == nil {
		return cmp.Compare(a, b)
	}
	return cmp.Compare(id, other)
}

// Geofence is a circular zone the player must reach in Order.
type Geofence struct {
	ID           ID      `json:"id"`
	Title        string  `json:"title"`
	ClueText     string  `json:"clue_text"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters float64 `json:"radius_m"`
	Order        int     `json:"order"`
	VideoURL     string  `json:"video_url,omitempty"`
}

// Center returns the geofence center.
func (g Geofence) Center() Coordinate {
	return Coordinate{Lat: g.Lat, Lng: g.Lng}
}

// Source fetches the raw geofence list.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// FileSource reads geofences from a JSON file on disk.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(_ context.Context) ([]byte, error) {
	return os.ReadFile(s.Path)
}

// HTTPSource fetches geofences from a URL. A cachebust query parameter is
// added to every request so intermediaries never serve a stale list.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing source url: %w", err)
	}
	q := u.Query()
	q.Set("cachebust", strconv.FormatInt(time.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// LoadGeofences fetches and parses the geofence list from src. Any fetch or
// parse failure wraps ErrDataUnavailable; the caller decides whether to retry.
func LoadGeofences(ctx context.Context, src Source) ([]Geofence, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	var gs []Geofence
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrDataUnavailable, err)
	}

	seen := make(map[ID]struct{}, len(gs))
	for _, g := range gs {
		if g.ID == "" {
			return nil, fmt.Errorf("%w: geofence without id", ErrDataUnavailable)
		}
		if _, dup := seen[g.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate geofence id %q", ErrDataUnavailable, g.ID)
		}
		seen[g.ID] = struct{}{}
		if g.Order <= 0 {
			return nil, fmt.Errorf("%w: geofence %q has order %d", ErrDataUnavailable, g.ID, g.Order)
		}
		if g.RadiusMeters <= 0 {
			return nil, fmt.Errorf("%w: geofence %q has radius %v", ErrDataUnavailable, g.ID, g.RadiusMeters)
		}
	}
	return gs, nil
}
