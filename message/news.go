// Copyright 2024 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package message

import "time"

// News is a news headline with optional body.
type News struct {
	ID           string
	ServerTime   time.Time
	LocalTime    time.Time
	Source       string
	Headline     string
	Story        string
	URL          string
	BoardCode    string
	SecurityCode string
	Priority     *int32
	Language     string
	ExpiryDate   *time.Time
	SeqNum       int64
}

// String implements fmt.Stringer.
func (n News) String() string {
	f := newFormatter("news")
	f.str("id", n.ID)
	f.instant("t", n.ServerTime)
	f.instant("local", n.LocalTime)
	f.str("source", n.Source)
	f.str("headline", n.Headline)
	f.str("story", n.Story)
	f.str("url", n.URL)
	f.str("board", n.BoardCode)
	f.str("security", n.SecurityCode)
	f.value("priority", n.Priority)
	f.str("lang", n.Language)
	f.value("expiry", n.ExpiryDate)
	f.integer("seq", n.SeqNum)
	return f.String()
}
