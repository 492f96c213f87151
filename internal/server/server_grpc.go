package server

import (
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jenkinsci/radiatorview/internal/radiator"
)

// updateHealth reports the radiator on the gRPC health service: service ""
// covers the whole view and every top-level group gets a service of its own
// name. Broken means NOT_SERVING. Groups that disappeared from the view are
// reported as SERVICE_UNKNOWN.
func (s *radiatorServer) updateHealth(root *radiator.Group) {
	s.health.SetServingStatus("", servingStatus(root))

	seen := map[string]struct{}{}
	for _, child := range root.Children() {
		g, ok := child.(*radiator.Group)
		if !ok {
			continue
		}
		seen[g.Name()] = struct{}{}
		s.health.SetServingStatus(g.Name(), servingStatus(g))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.groupNames {
		if _, ok := seen[name]; !ok {
			s.health.SetServingStatus(name, healthpb.HealthCheckResponse_SERVICE_UNKNOWN)
		}
	}
	s.groupNames = seen
}

func servingStatus(e radiator.ViewEntry) healthpb.HealthCheckResponse_ServingStatus {
	if e.Broken() {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}
