package config

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/consul/api"
)

// LoadConfigFromConsulKV 从 Consul KV 拉取整份租车服务配置。
// value 必须是 JSON 且结构与 Config 一致。只做一次性读取，
// 不 watch；配置变更通过重启生效。
func LoadConfigFromConsulKV(consul ConsulConfig, key string) (*Config, error) {
	if key == "" {
		return nil, fmt.Errorf("consul kv key is empty")
	}

	c, err := api.NewClient(&api.Config{
		Address: fmt.Sprintf("%s:%d", consul.Host, consul.Port),
	})
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	pair, _, err := c.KV().Get(key, nil)
	if err != nil {
		return nil, fmt.Errorf("read rental config key=%s: %w", key, err)
	}
	if pair == nil || len(pair.Value) == 0 {
		return nil, fmt.Errorf("rental config key=%s is empty or missing", key)
	}

	cfg := &Config{}
	if err := json.Unmarshal(pair.Value, cfg); err != nil {
		return nil, fmt.Errorf("parse rental config key=%s: %w", key, err)
	}
	return cfg, nil
}
