// Copyright 2025 Fieldops. All rights reserved.
// Use of this source code is governed by a BSD-style license
// specified in the Github project LICENSE file.

// Package api manages the api controllers
package api

import (
	"net/http"

	"github.com/fieldops/custody-server/pkg/conf"
	"github.com/fieldops/custody-server/pkg/stor"
)

// APICtrl contains the context required by http handlers.
type APICtrl struct {
	*conf.Config // TODO: change for an interface (dependency)
	stor.Store
}

// NewAPICtrl returns a new API controller
func NewAPICtrl(cf *conf.Config, st stor.Store) *APICtrl {
	return &APICtrl{
		Config: cf,
		Store:  st,
	}
}

// Operator is the authenticated tenant/user triple resolved by the
// authentication middleware.
type Operator struct {
	OrganizationID string
	UserID         string
	UserName       string
}

// getOperator reads the triple the auth middleware stored in the request headers.
func getOperator(r *http.Request) Operator {
	return Operator{
		OrganizationID: r.Header.Get("X-Organization-ID"),
		UserID:         r.Header.Get("X-User-ID"),
		UserName:       r.Header.Get("X-User-Name"),
	}
}
