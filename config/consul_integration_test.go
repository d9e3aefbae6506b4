// Copyright 2025 The Rivaas Authors
// Copyright 2025 Company.info B.V.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build integration

package config

import (
	"context"
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/modules/consul"
)

type ConsulSettingsSuite struct {
	suite.Suite
	consul *consul.ConsulContainer
	kv     *api.KV
}

func (s *ConsulSettingsSuite) SetupSuite() {
	ctx := context.Background()

	container, err := consul.Run(ctx, "hashicorp/consul:1.15", testcontainers.WithLogger(log.TestLogger(s.T())))
	s.Require().NoError(err)
	s.consul = container

	endpoint, err := container.ApiEndpoint(ctx)
	s.Require().NoError(err)
	s.T().Setenv("CONSUL_HTTP_ADDR", endpoint)

	cfg := api.DefaultConfig()
	cfg.Address = endpoint
	client, err := api.NewClient(cfg)
	s.Require().NoError(err)
	s.kv = client.KV()
}

func (s *ConsulSettingsSuite) TearDownSuite() {
	if s.consul != nil {
		s.Require().NoError(s.consul.Terminate(context.Background()))
	}
}

func TestConsulSettingsSuite(t *testing.T) {
	suite.Run(t, new(ConsulSettingsSuite))
}

func (s *ConsulSettingsSuite) put(key, value string) {
	_, err := s.kv.Put(&api.KVPair{Key: key, Value: []byte(value)}, nil)
	s.Require().NoError(err)
}

func (s *ConsulSettingsSuite) TestConsulOverridesFile() {
	s.put("smartcompress/overrides.yaml", "compression:\n  threshold: 8192\nexemption:\n  extra: [/healthz]\n")

	file := writeFile(s.T(), "smartcompress.yaml", settingsYAML)

	settings, _, err := LoadSettings(context.Background(),
		WithFile(file),
		WithConsul("smartcompress/overrides.yaml"),
	)
	s.Require().NoError(err)

	s.Equal(lo.ToPtr(int64(8192)), settings.Compression.Threshold)
	s.Equal([]string{"/healthz"}, settings.Exemption.Extra)
	s.Equal("X-Raw", settings.Compression.Marker)
}

func (s *ConsulSettingsSuite) TestMissingKeyKeepsDefaults() {
	settings, _, err := LoadSettings(context.Background(), WithConsul("smartcompress/missing.json"))
	s.Require().NoError(err)

	s.Equal(lo.ToPtr(int64(1024)), settings.Compression.Threshold)
}

func (s *ConsulSettingsSuite) TestSchemaViolationInConsul() {
	s.put("smartcompress/bad.json", `{"compression": {"threshold": -1}}`)

	_, _, err := LoadSettings(context.Background(), WithConsul("smartcompress/bad.json"))
	s.Require().Error(err)

	var cfgErr *Error
	s.Require().ErrorAs(err, &cfgErr)
	s.Equal("json-schema", cfgErr.Source)
}
