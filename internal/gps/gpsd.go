package gps

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

const gpsdDefaultAddr = "127.0.0.1:2947"

// gpsdRawWatch asks gpsd to relay the receiver's sentences verbatim. gpsd
// still sends its own JSON banner lines; they carry no '$' and the frame
// assembler skips them.
const gpsdRawWatch = "?WATCH={\"enable\":true,\"raw\":1}\n"

// dialGPSDRaw connects to gpsd and enables raw NMEA relay.
func dialGPSDRaw(ctx context.Context, addr string) (net.Conn, error) {
	if strings.TrimSpace(addr) == "" {
		addr = gpsdDefaultAddr
	}
	d := &net.Dialer{Timeout: 2 * time.Second}
	if ctx == nil {
		ctx = context.Background()
	}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("gps: gpsd dial %s: %w", addr, err)
	}
	if _, err := conn.Write([]byte(gpsdRawWatch)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("gps: gpsd watch: %w", err)
	}
	return conn, nil
}
