// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/samber/lo"
	"github.com/stalcup-dev/riverboat-tournament/server/fishing"
)

// This is an internal script that summarizes a server's catch log and
// checks that every catch replays to the same fish

type catch struct {
	room    string
	seed    uint32
	session string
	name    string
	seq     int
	hotspot string
	fishID  string
	weight  float64
	length  float64
	points  int
}

func main() {
	in := flag.String("in", "catches.csv", "catch log written by the server")
	out := flag.String("out", "catch-report.csv", "summary to write")
	flag.Parse()

	pack, err := fishing.DefaultPack()
	if err != nil {
		log.Fatal(err)
	}

	catches, err := readCatches(*in)
	if err != nil {
		log.Fatal(err)
	}

	mismatches := 0
	for _, c := range catches {
		outcome, err := fishing.Resolve(c.seed, c.session, c.seq, c.hotspot, pack.Fish, pack.Scoring)
		if err != nil {
			log.Fatal(err)
		}
		if outcome.FishID != c.fishID || outcome.PointsDelta != c.points || math.Abs(outcome.Weight-c.weight) > 0.01 {
			mismatches++
			log.Printf("mismatch room=%s session=%s seq=%d logged=%s replayed=%s", c.room, c.session, c.seq, c.fishID, outcome.FishID)
		}
	}

	o, err := os.Create(*out)
	if err != nil {
		log.Fatal(err)
	}
	defer o.Close()
	w := csv.NewWriter(o)

	_ = w.Write([]string{"room", "name", "catches", "points", "biggest_weight", "species"})

	byPlayer := lo.GroupBy(catches, func(c catch) string {
		return c.room + "\x00" + c.name
	})
	keys := lo.Keys(byPlayer)
	sort.Strings(keys)

	for _, key := range keys {
		group := byPlayer[key]
		biggest := lo.MaxBy(group, func(a, b catch) bool {
			return a.weight > b.weight
		})
		species := lo.Uniq(lo.Map(group, func(c catch, _ int) string {
			return c.fishID
		}))
		_ = w.Write([]string{
			group[0].room,
			group[0].name,
			strconv.Itoa(len(group)),
			strconv.Itoa(lo.SumBy(group, func(c catch) int { return c.points })),
			fmt.Sprintf("%.2f", biggest.weight),
			strconv.Itoa(len(species)),
		})
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatal(err)
	}

	log.Printf("catches=%d players=%d mismatches=%d", len(catches), len(keys), mismatches)
	if mismatches > 0 {
		os.Exit(1)
	}
}

func readCatches(filename string) ([]catch, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 11

	var catches []catch
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return catches, nil
		}
		if err != nil {
			return nil, err
		}

		c, err := parseCatch(record)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("%s:%d: %w", filename, line, err)
		}
		catches = append(catches, c)
	}
}

// parseCatch reads a row of: time, room, seed, session, name, seq,
// hotspot, fish, weight, length, points.
func parseCatch(record []string) (c catch, err error) {
	seed, err := strconv.ParseUint(record[2], 10, 32)
	if err != nil {
		return
	}
	if c.seq, err = strconv.Atoi(record[5]); err != nil {
		return
	}
	if c.weight, err = strconv.ParseFloat(record[8], 64); err != nil {
		return
	}
	if c.length, err = strconv.ParseFloat(record[9], 64); err != nil {
		return
	}
	if c.points, err = strconv.Atoi(record[10]); err != nil {
		return
	}

	c.room = record[1]
	c.seed = uint32(seed)
	c.session = record[3]
	c.name = record[4]
	c.hotspot = record[6]
	c.fishID = record[7]
	return c, nil
}
