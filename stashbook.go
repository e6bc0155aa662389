/*
Copyright 2025 Stashbook Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package stashbook

import (
	"embed"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/stashbook-finance/stashbook/config"
	"github.com/stashbook-finance/stashbook/database"
	"github.com/stashbook-finance/stashbook/internal/cache"
	redis_db "github.com/stashbook-finance/stashbook/internal/redis-db"
)

// Stashbook is the ledger service. All account and transaction operations go
// through it; the datasource carries the units of work and the cache fronts
// account reads.
type Stashbook struct {
	redis      redis.UniversalClient
	cache      cache.Cache
	datasource database.IDataSource
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewStashbook initializes the service with the provided datasource, wiring in
// the Redis client and the account cache from the loaded configuration.
func NewStashbook(db database.IDataSource) (*Stashbook, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)})
	if err != nil {
		return nil, err
	}
	accountCache, err := cache.NewCache()
	if err != nil {
		return nil, err
	}
	return &Stashbook{datasource: db, redis: redisClient.Client(), cache: accountCache}, nil
}
