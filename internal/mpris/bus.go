package mpris

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

// PropertySetter is the part of *prop.Properties the bridge writes through
type PropertySetter interface {
	SetMust(iface, property string, v interface{})
	Introspection(iface string) []introspect.Property
}

// BusConn defines the D-Bus operations needed to serve a player.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=bus_conn_mock_test.go -package=mpris github.com/genricoloni/streamly/internal/mpris BusConn
type BusConn interface {
	// RequestName claims a well-known name; it reports whether we are the primary owner
	RequestName(name string) (bool, error)

	// Export serves the methods of v on path under iface
	Export(v any, path dbus.ObjectPath, iface string) error

	// ExportProperties serves org.freedesktop.DBus.Properties for props on path
	ExportProperties(path dbus.ObjectPath, props prop.Map) (PropertySetter, error)

	// Emit sends a signal from path
	Emit(path dbus.ObjectPath, name string, values ...any) error

	// Close releases the name and the connection
	Close() error
}

// StdBusConn is the real implementation using godbus
type StdBusConn struct {
	conn *dbus.Conn
}

// NewStdBusConn opens a private connection to the session bus
func NewStdBusConn() (*StdBusConn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &StdBusConn{conn: conn}, nil
}

// RequestName claims name without queueing behind another owner
func (c *StdBusConn) RequestName(name string) (bool, error) {
	reply, err := c.conn.RequestName(name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return false, fmt.Errorf("request name %s: %w", name, err)
	}
	return reply == dbus.RequestNameReplyPrimaryOwner, nil
}

// Export serves the methods of v
func (c *StdBusConn) Export(v any, path dbus.ObjectPath, iface string) error {
	return c.conn.Export(v, path, iface)
}

// ExportProperties serves props through the standard Properties interface
func (c *StdBusConn) ExportProperties(path dbus.ObjectPath, props prop.Map) (PropertySetter, error) {
	p, err := prop.Export(c.conn, path, props)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Emit sends a signal
func (c *StdBusConn) Emit(path dbus.ObjectPath, name string, values ...any) error {
	return c.conn.Emit(path, name, values...)
}

// Close closes the D-Bus connection
func (c *StdBusConn) Close() error {
	return c.conn.Close()
}
