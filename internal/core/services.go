package core

import (
	"github.com/edvin/multiregion/internal/region"
)

type Services struct {
	Entry  *EntryService
	Status *StatusService
}

// NewServices wires the services. databaseURL is the connection string the
// pool was opened with, shown (without its password) in status output.
func NewServices(db DB, pinger Pinger, replication ReplicationChecker, topology *region.Topology, databaseURL string) *Services {
	writer := topology.Current
	if writer == "" {
		writer = topology.Primary
	}

	return &Services{
		Entry:  NewEntryService(db, string(writer)),
		Status: NewStatusService(topology, databaseURL, pinger, replication),
	}
}
