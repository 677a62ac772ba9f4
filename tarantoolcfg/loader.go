/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package tarantoolcfg

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/gravwell/gcfg"
)

const (
	maxConfigSize int64 = 4 * 1024 * 1024 // 4MB is already a wildly oversized config file
)

var (
	ErrConfigFileTooLarge = errors.New("config file is too large")
	ErrFailedFileRead     = errors.New("failed to read entire config file")
)

// LoadFile opens, size-checks, and parses an INI config file into a
// Tarantool section, then validates it.
func LoadFile(p string) (*Tarantool, error) {
	fin, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer fin.Close()

	fi, err := fin.Stat()
	if err != nil {
		return nil, err
	} else if fi.Size() > maxConfigSize {
		return nil, ErrConfigFileTooLarge
	}

	bb := bytes.NewBuffer(nil)
	n, err := io.Copy(bb, fin)
	if err != nil {
		return nil, err
	} else if n != fi.Size() {
		return nil, ErrFailedFileRead
	}
	return LoadBytes(bb.Bytes())
}

// LoadBytes parses raw INI bytes into a Tarantool section and validates it.
func LoadBytes(b []byte) (*Tarantool, error) {
	if int64(len(b)) > maxConfigSize {
		return nil, ErrConfigFileTooLarge
	}
	var cr cfgReadType
	if err := gcfg.ReadStringInto(&cr, string(b)); err != nil {
		return nil, err
	}
	if err := cr.Tarantool.Validate(); err != nil {
		return nil, err
	}
	return &cr.Tarantool, nil
}
