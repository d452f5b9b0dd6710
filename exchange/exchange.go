// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package exchange resolves board codes to the exchanges and time zones
// legacy day blobs are stored in.
package exchange

import (
	"io"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Board is a trading venue of an exchange.
type Board struct {
	Code     string
	Exchange string
	// TimeZone is the zone the board's wall clock readings are taken in.
	TimeZone *time.Location
}

// Provider looks up boards by code.
type Provider interface {
	// TryGetExchangeBoard returns the board with the given code, if known.
	TryGetExchangeBoard(code string) (Board, bool)
}

// InMemoryProvider is a Provider backed by a map. It is safe for concurrent
// use.
type InMemoryProvider struct {
	mu     sync.RWMutex
	boards map[string]Board
}

var _ Provider = (*InMemoryProvider)(nil)

// NewInMemoryProvider returns a provider holding boards.
func NewInMemoryProvider(boards ...Board) *InMemoryProvider {
	p := &InMemoryProvider{boards: make(map[string]Board, len(boards))}
	for _, b := range boards {
		p.Add(b)
	}
	return p
}

// Add registers b, replacing any board with the same code. Codes are case
// insensitive.
func (p *InMemoryProvider) Add(b Board) {
	if b.TimeZone == nil {
		b.TimeZone = time.UTC
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.boards[strings.ToUpper(b.Code)] = b
}

// TryGetExchangeBoard implements Provider.
func (p *InMemoryProvider) TryGetExchangeBoard(code string) (Board, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.boards[strings.ToUpper(code)]
	return b, ok
}

// Codes returns the registered board codes in sorted order.
func (p *InMemoryProvider) Codes() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	codes := make([]string, 0, len(p.boards))
	for c := range p.boards {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	return codes
}

// yamlBoard is the on-disk form of a Board.
type yamlBoard struct {
	Code     string `yaml:"code"`
	Exchange string `yaml:"exchange"`
	TimeZone string `yaml:"timezone"`
}

type yamlFile struct {
	Boards []yamlBoard `yaml:"boards"`
}

// LoadYAML reads boards from a YAML document of the form
//
//	boards:
//	  - code: TQBR
//	    exchange: MOEX
//	    timezone: Europe/Moscow
func LoadYAML(r io.Reader) (*InMemoryProvider, error) {
	var f yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding boards")
	}
	p := NewInMemoryProvider()
	for i, yb := range f.Boards {
		if yb.Code == "" {
			return nil, errors.Newf("board %d has no code", i)
		}
		loc := time.UTC
		if yb.TimeZone != "" {
			var err error
			if loc, err = time.LoadLocation(yb.TimeZone); err != nil {
				return nil, errors.Wrapf(err, "board %s", yb.Code)
			}
		}
		if _, ok := p.TryGetExchangeBoard(yb.Code); ok {
			return nil, errors.Newf("duplicate board %s", yb.Code)
		}
		p.Add(Board{Code: yb.Code, Exchange: yb.Exchange, TimeZone: loc})
	}
	return p, nil
}

// LoadYAMLFile is LoadYAML on the named file.
func LoadYAMLFile(path string) (*InMemoryProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadYAML(f)
}
