// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fishing

import (
	"testing"

	"github.com/stalcup-dev/riverboat-tournament/server/world"
)

func TestDefaultPack(t *testing.T) {
	pack, err := DefaultPack()
	if err != nil {
		t.Fatal(err)
	}

	m, err := world.DefaultMap()
	if err != nil {
		t.Fatal(err)
	}

	if len(pack.Hotspots) == 0 || len(pack.Fish) == 0 {
		t.Fatal("expected hotspots and fish")
	}

	if err := pack.CheckZones(m); err != nil {
		t.Error(err)
	}

	for _, h := range pack.Hotspots {
		if h.CastRadius <= 0 || h.Capacity <= 0 {
			t.Errorf("hotspot %s has bad radius or cap", h.ID)
		}
		if pack.Hotspot(h.ID) == nil {
			t.Errorf("hotspot %s not indexed", h.ID)
		}
	}

	for _, f := range pack.Fish {
		if f.WeightMin > f.WeightMax || f.LengthMin > f.LengthMax {
			t.Errorf("fish %s has inverted range", f.ID)
		}
		if f.RarityTier < 1 {
			t.Errorf("fish %s has bad tier %d", f.ID, f.RarityTier)
		}
	}

	if pack.Hotspot("nope") != nil {
		t.Error("expected nil for unknown hotspot")
	}
}

func TestParsePackDuplicateHotspot(t *testing.T) {
	hotspots := []byte(`{"hotspots":[{"id":"a"},{"id":"a"}]}`)
	if _, err := ParsePack(hotspots, []byte(`{}`), []byte(`{}`)); err == nil {
		t.Error("expected duplicate error")
	}
}

func TestCheckZones(t *testing.T) {
	m, err := world.DefaultMap()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		hotspots string
		ok       bool
	}{
		{`{"hotspots":[{"id":"a","x":1000,"y":100,"zone_id":"river_water"}]}`, true},
		{`{"hotspots":[{"id":"a","x":1000,"y":100,"zone_id":"river_watr"}]}`, false},
		{`{"hotspots":[{"id":"a","x":10,"y":10,"zone_id":"river_water"}]}`, false},
		{`{"hotspots":[{"id":"a","x":1000,"y":100}]}`, false},
	}

	for _, test := range tests {
		pack, err := ParsePack([]byte(test.hotspots), []byte(`{}`), []byte(`{}`))
		if err != nil {
			t.Fatal(err)
		}
		if err := pack.CheckZones(m); (err == nil) != test.ok {
			t.Errorf("%s: expected ok %v, got %v", test.hotspots, test.ok, err)
		}
	}
}
