package server

import (
	"log/slog"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/mdns"

	"github.com/jenkinsci/radiatorview/internal/version"
)

const mdnsService = "_radiator._tcp"

// startMDNSAdvertiser announces the radiator on the local network so wall
// displays can find it. The returned func stops the announcement.
func startMDNSAdvertiser(serverAddr string) func() {
	if enabled, err := strconv.ParseBool(envOrDefault("RADIATOR_MDNS_ENABLE", "true")); err == nil && !enabled {
		return func() {}
	}
	port, ok := listenPort(serverAddr)
	if !ok {
		slog.Warn("mdns advertising skipped, no usable port", "addr", serverAddr)
		return func() {}
	}

	host, _ := os.Hostname()
	instance := envOrDefault("RADIATOR_MDNS_INSTANCE", "radiator-"+host)
	ifAddrs, _ := net.InterfaceAddrs()
	meta := []string{
		"api_version=" + strconv.Itoa(apiVersion),
		"version=" + version.Current(),
	}
	service, err := mdns.NewMDNSService(instance, mdnsService, "", "", port, advertiseIPs(ifAddrs), meta)
	if err != nil {
		slog.Error("mdns service setup failed", "error", err)
		return func() {}
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		slog.Error("mdns advertise start failed", "error", err)
		return func() {}
	}
	slog.Info("mdns advertising enabled", "service", mdnsService, "instance", instance, "port", port)
	return func() { _ = server.Shutdown() }
}

// advertiseIPs keeps the routable unicast addresses, IPv4 first.
func advertiseIPs(addrs []net.Addr) []net.IP {
	var out []net.IP
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || !ipNet.IP.IsGlobalUnicast() {
			continue
		}
		ip := ipNet.IP.To16()
		if !slices.ContainsFunc(out, ip.Equal) {
			out = append(out, ip)
		}
	}
	slices.SortFunc(out, func(a, b net.IP) int {
		if a4, b4 := a.To4() != nil, b.To4() != nil; a4 != b4 {
			if a4 {
				return -1
			}
			return 1
		}
		return strings.Compare(a.String(), b.String())
	})
	return out
}

// listenPort extracts the numeric port of a listen address, 8080 when empty.
func listenPort(addr string) (int, bool) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return 8080, true
	}
	if _, p, err := net.SplitHostPort(addr); err == nil {
		addr = p
	}
	port, err := strconv.Atoi(addr)
	return port, err == nil && port > 0
}
