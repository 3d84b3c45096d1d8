// Copyright 2025 Harlan Switzer <harlan@harlanswitzer.com>
// All rights reserved.

package storage

import (
	"encoding/json"
	"fmt"
)

type Conf struct {
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

func (c *Conf) Validate(context string) error {
	if c.Host == "" {
		return fmt.Errorf("%s.host is empty/missing", context)
	}
	if c.User == "" {
		return fmt.Errorf("%s.user is empty/missing", context)
	}
	if c.Database == "" {
		return fmt.Errorf("%s.database is empty/missing", context)
	}
	return nil
}

type DataCleanupResult struct {
	NumDeletedRequests int
	NumDeletedEvents   int
	Error              error
}

func (dcr DataCleanupResult) MarshalJSON() ([]byte, error) {
	var statusErr *string
	if dcr.Error != nil {
		tmp := dcr.Error.Error()
		statusErr = &tmp
	}
	return json.Marshal(
		struct {
			NumDeletedRequests int     `json:"deletedRequests"`
			NumDeletedEvents   int     `json:"deletedEvents"`
			Error              *string `json:"error"`
		}{
			NumDeletedRequests: dcr.NumDeletedRequests,
			NumDeletedEvents:   dcr.NumDeletedEvents,
			Error:              statusErr,
		},
	)
}
