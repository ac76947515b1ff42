package discovery

import (
	"fmt"

	"github.com/hashicorp/consul/api"
)

// ServiceRegistry Consul服务注册
type ServiceRegistry struct {
	client    *api.Client
	serviceID string
	service   string
	address   string
	port      int
	tags      []string
	check     *api.AgentServiceCheck
}

// NewServiceRegistry 创建服务注册器（使用 gRPC 健康检查探测）
func NewServiceRegistry(client *api.Client, serviceID, service, address string, port int, tags []string) *ServiceRegistry {
	return &ServiceRegistry{
		client:    client,
		serviceID: serviceID,
		service:   service,
		address:   address,
		port:      port,
		tags:      tags,
		check: &api.AgentServiceCheck{
			GRPC:                           fmt.Sprintf("%s:%d", address, port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}
}

// WithGRPCCheck 指定 gRPC 健康检查目标。
// 服务端口与健康检查端口不同时使用（HTTP API + 伴生 gRPC health）。
func (r *ServiceRegistry) WithGRPCCheck(target string) *ServiceRegistry {
	r.check = &api.AgentServiceCheck{
		GRPC:                           target,
		Interval:                       "10s",
		Timeout:                        "5s",
		DeregisterCriticalServiceAfter: "30s",
	}
	return r
}

// Register 注册服务
func (r *ServiceRegistry) Register() error {
	registration := &api.AgentServiceRegistration{
		ID:      r.serviceID,
		Name:    r.service,
		Tags:    r.tags,
		Address: r.address,
		Port:    r.port,
		Check:   r.check,
	}

	return r.client.Agent().ServiceRegister(registration)
}

// Deregister 注销服务
func (r *ServiceRegistry) Deregister() error {
	return r.client.Agent().ServiceDeregister(r.serviceID)
}

// ResolveService 查询一个健康实例的地址（host:port）。
// 客户端侧按需调用；未配置 Consul 时调用方直接使用静态 base_url。
func ResolveService(client *api.Client, service string) (string, error) {
	if client == nil {
		return "", fmt.Errorf("consul client is nil")
	}
	entries, _, err := client.Health().Service(service, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("failed to query service %s: %w", service, err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no healthy instance for service %s", service)
	}
	svc := entries[0].Service
	return fmt.Sprintf("%s:%d", svc.Address, svc.Port), nil
}

// NewConsulClient 创建Consul客户端
func NewConsulClient(host string, port int) (*api.Client, error) {
	config := api.DefaultConfig()
	config.Address = fmt.Sprintf("%s:%d", host, port)
	return api.NewClient(config)
}
