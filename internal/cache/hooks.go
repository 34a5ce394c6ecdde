// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package cache

import (
	"context"
	"time"

	"github.com/ClusterCockpit/cc-dbc/pkg/log"
)

type queryLogHooks struct{}

type beginKey struct{}

func (queryLogHooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("cache: query %s %q", query, args)
	return context.WithValue(ctx, beginKey{}, time.Now()), nil
}

func (queryLogHooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	if begin, ok := ctx.Value(beginKey{}).(time.Time); ok {
		log.Debugf("cache: took %s", time.Since(begin))
	}
	return ctx, nil
}
