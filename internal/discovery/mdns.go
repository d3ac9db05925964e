// ABOUTME: mDNS service discovery for the detection service
// ABOUTME: Handles advertisement (server) and browsing (voicecheck client)
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"go.uber.org/zap"
)

// ServiceType is the DNS-SD type advertised by the server
const ServiceType = "_voicedetect._tcp"

// DefaultBrowseTimeout bounds one mDNS query round
const DefaultBrowseTimeout = 3 * time.Second

// ErrNotFound is returned by Lookup when no server answered
var ErrNotFound = errors.New("no voicedetect server found")

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	TXT         []string // extra TXT records, key=value
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	servers chan *ServerInfo
}

// ServerInfo describes a discovered server
type ServerInfo struct {
	Name string
	Host string
	Port int
	TXT  map[string]string
}

// Addr returns host:port
func (s *ServerInfo) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	if config.Timeout <= 0 {
		config.Timeout = DefaultBrowseTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		config:  config,
		logger:  logger.With(zap.String("component", "discovery")),
		ctx:     ctx,
		cancel:  cancel,
		servers: make(chan *ServerInfo, 10),
	}
}

// Advertise announces the HTTP endpoint via mDNS until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	txt := append([]string{"path=/detect", "ws=/detect/ws"}, m.config.TXT...)
	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		txt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.logger.Info("advertising mDNS service",
		zap.String("name", m.config.ServiceName),
		zap.Int("port", m.config.Port),
		zap.String("type", ServiceType),
	)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for servers until Stop is called; results arrive on Servers
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		if err := m.query(m.servers); err != nil {
			m.logger.Warn("mDNS query failed", zap.Error(err))
			select {
			case <-m.ctx.Done():
				return
			case <-time.After(m.config.Timeout):
			}
		}
	}
}

// query runs one mDNS round, forwarding entries to out
func (m *Manager) query(out chan<- *ServerInfo) error {
	entries := make(chan *mdns.ServiceEntry, 10)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			server := fromEntry(entry)
			if server == nil {
				continue
			}
			m.logger.Debug("discovered server",
				zap.String("name", server.Name),
				zap.String("addr", server.Addr()),
			)
			select {
			case out <- server:
			case <-m.ctx.Done():
			default:
				// Receiver is full; drop duplicates from repeated rounds
			}
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Domain = "local"
	params.Timeout = m.config.Timeout
	params.Entries = entries
	params.DisableIPv6 = true

	err := mdns.Query(params)
	close(entries)
	<-done
	return err
}

// Lookup runs a single browse round and returns the first server found
func (m *Manager) Lookup(ctx context.Context) (*ServerInfo, error) {
	found := make(chan *ServerInfo, 10)
	errCh := make(chan error, 1)
	go func() {
		errCh <- m.query(found)
	}()

	select {
	case server := <-found:
		return server, nil
	case err := <-errCh:
		select {
		case server := <-found:
			return server, nil
		default:
		}
		if err != nil {
			return nil, fmt.Errorf("mDNS query failed: %w", err)
		}
		return nil, ErrNotFound
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Servers returns the channel of discovered servers
func (m *Manager) Servers() <-chan *ServerInfo {
	return m.servers
}

// Stop stops advertisement and browsing
func (m *Manager) Stop() {
	m.cancel()
}

// fromEntry converts an mDNS answer, ignoring entries without an IPv4 address
func fromEntry(entry *mdns.ServiceEntry) *ServerInfo {
	if entry == nil || entry.AddrV4 == nil {
		return nil
	}
	return &ServerInfo{
		Name: entry.Name,
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		TXT:  parseTXT(entry.InfoFields),
	}
}

// parseTXT splits key=value records; bare keys map to ""
func parseTXT(fields []string) map[string]string {
	txt := make(map[string]string, len(fields))
	for _, f := range fields {
		k, v, _ := strings.Cut(f, "=")
		if k != "" {
			txt[k] = v
		}
	}
	return txt
}

// getLocalIPs returns the IPv4 addresses of up, non-loopback interfaces
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
