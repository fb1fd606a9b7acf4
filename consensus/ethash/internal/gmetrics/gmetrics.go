// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package gmetrics wraps github.com/rcrowley/go-metrics down to the one
// type this core needs: a hash-rate meter.
package gmetrics

import rmetrics "github.com/rcrowley/go-metrics"

// Meter tracks a moving average rate, used here for the local miner's
// hashes-per-second figure.
type Meter struct {
	inner rmetrics.Meter
}

// NewMeter allocates a running meter.
func NewMeter() *Meter {
	return &Meter{inner: rmetrics.NewMeter()}
}

// Mark records n events (hash attempts) having just occurred.
func (m *Meter) Mark(n int64) {
	m.inner.Mark(n)
}

// Rate1 returns the one-minute moving average rate.
func (m *Meter) Rate1() float64 {
	return m.inner.Snapshot().Rate1()
}
