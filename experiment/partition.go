// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package experiment

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// partitionPrec is the mantissa precision, in bits, of partition
// function arithmetic. It is well beyond the 20 printed decimals.
const partitionPrec = 256

// ErrEmptyPartition is returned by ComparePartition when an input has
// no values.
var ErrEmptyPartition = errors.New("input files must contain at least one value")

// A PartitionDiff compares two equally long lists of values.
type PartitionDiff struct {
	N int
	// RMS is the root mean square of the differences and MaxAbs the
	// largest absolute difference.
	RMS, MaxAbs *big.Float
}

func (d *PartitionDiff) String() string {
	return fmt.Sprintf("rms: %s\nlargest diff: %s\n", d.RMS.Text('f', 20), d.MaxAbs.Text('f', 20))
}

// ReadDecimals reads whitespace-separated finite decimal values from
// r. name identifies r in errors.
func ReadDecimals(r io.Reader, name string) ([]*big.Float, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	var vals []*big.Float
	for sc.Scan() {
		v, _, err := big.ParseFloat(sc.Text(), 10, partitionPrec, big.ToNearestEven)
		if err != nil || v.IsInf() {
			return nil, fmt.Errorf("%s: invalid numeric value %q", name, sc.Text())
		}
		vals = append(vals, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return vals, nil
}

// ComparePartition compares the values in r0 and r1 position by
// position.
func ComparePartition(r0 io.Reader, name0 string, r1 io.Reader, name1 string) (*PartitionDiff, error) {
	v0, err := ReadDecimals(r0, name0)
	if err != nil {
		return nil, err
	}
	v1, err := ReadDecimals(r1, name1)
	if err != nil {
		return nil, err
	}
	if len(v0) == 0 || len(v1) == 0 {
		return nil, ErrEmptyPartition
	}
	if len(v0) != len(v1) {
		return nil, fmt.Errorf("input lengths do not match: %d vs %d", len(v0), len(v1))
	}

	newFloat := func() *big.Float { return new(big.Float).SetPrec(partitionPrec) }
	sumSq, maxAbs := newFloat(), newFloat()
	d, sq := newFloat(), newFloat()
	for i := range v0 {
		d.Sub(v0[i], v1[i])
		sq.Mul(d, d)
		sumSq.Add(sumSq, sq)
		d.Abs(d)
		if d.Cmp(maxAbs) > 0 {
			maxAbs.Set(d)
		}
	}
	mean := newFloat().Quo(sumSq, newFloat().SetInt64(int64(len(v0))))
	return &PartitionDiff{
		N:      len(v0),
		RMS:    newFloat().Sqrt(mean),
		MaxAbs: maxAbs,
	}, nil
}
