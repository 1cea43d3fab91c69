// Package overlay speaks the anonymizing network's text control
// protocol (ASCII, "\r\n" terminated) to authenticate, check bootstrap
// progress, and publish a hidden endpoint, and persists the resulting
// key material to disk so the same .onion hostname survives a restart.
package overlay

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/theivess/trackerd/log"
)

// Conn is a live control-port session. Commands are written raw;
// replies are read line by line.
type Conn struct {
	nc  net.Conn
	r   *bufio.Reader
	pw  *bufio.Writer
}

// Dial opens a control-port connection. controlPort is assumed
// reachable on loopback, matching how the overlay daemon binds it.
func Dial(controlPort uint16) (*Conn, error) {
	nc, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", controlPort), 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("overlay: dial control port: %w", err)
	}
	return &Conn{nc: nc, r: bufio.NewReader(nc), pw: bufio.NewWriter(nc)}, nil
}

func (c *Conn) Close() error { return c.nc.Close() }

func (c *Conn) writeLine(line string) error {
	if _, err := c.pw.WriteString(line + "\r\n"); err != nil {
		return err
	}
	return c.pw.Flush()
}

func (c *Conn) readLine() (string, error) {
	return c.r.ReadString('\n')
}

// Authenticate sends AUTHENTICATE and fails unless the reply begins
// with "250".
func (c *Conn) Authenticate(password string) error {
	if err := c.writeLine(fmt.Sprintf("AUTHENTICATE %q", password)); err != nil {
		return err
	}
	reply, err := c.readLine()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(reply, "250") {
		return fmt.Errorf("overlay: authentication failed: %s", strings.TrimSpace(reply))
	}
	return nil
}

// CheckBootstrap issues GETINFO status/bootstrap-phase and logs
// whether the overlay reports full progress. It never fails the
// caller on its own; a still-starting overlay is only a warning.
func (c *Conn) CheckBootstrap() error {
	if err := c.writeLine("GETINFO status/bootstrap-phase"); err != nil {
		return err
	}
	reply, err := c.readLine()
	if err != nil {
		return err
	}
	if strings.Contains(reply, "PROGRESS=100") {
		log.Info("overlay transport fully bootstrapped")
	} else {
		log.Warn("overlay transport still starting", "reply", strings.TrimSpace(reply))
	}
	return nil
}

// EphemeralAddress publishes a hidden endpoint forwarding to
// 127.0.0.1:targetPort. When privateKey/serviceID are both non-empty
// it first removes the matching existing service, then re-adds it
// with the same key so the hostname is stable; otherwise it requests
// a brand-new key. The returned hostname always reflects what the
// control port actually reports (never the caller's serviceID
// argument echoed back), so a caller reusing a persisted key can
// detect a control port that didn't honor it.
func (c *Conn) EphemeralAddress(targetPort uint16, privateKey, serviceID string) (hostname, key string, err error) {
	if serviceID != "" {
		if err := c.writeLine(fmt.Sprintf("DEL_ONION %s", serviceID)); err != nil {
			return "", "", err
		}
		if _, err := c.readLine(); err != nil {
			return "", "", err
		}
	}

	var cmd string
	if privateKey != "" {
		cmd = fmt.Sprintf("ADD_ONION %s Flags=Detach Port=%d,127.0.0.1:%d", privateKey, targetPort, targetPort)
	} else {
		cmd = fmt.Sprintf("ADD_ONION NEW:BEST Flags=Detach Port=%d,127.0.0.1:%d", targetPort, targetPort)
	}
	if err := c.writeLine(cmd); err != nil {
		return "", "", err
	}

	var gotServiceID, gotKey string
	if privateKey != "" {
		gotKey = privateKey
	}
	for {
		line, err := c.readLine()
		if err != nil {
			return "", "", err
		}
		switch {
		case strings.HasPrefix(line, "250-ServiceID="):
			gotServiceID = strings.TrimSpace(strings.TrimPrefix(line, "250-ServiceID="))
			if privateKey != "" {
				goto done
			}
		case strings.HasPrefix(line, "250-PrivateKey="):
			gotKey = strings.TrimSpace(strings.TrimPrefix(line, "250-PrivateKey="))
			goto done
		case strings.HasPrefix(line, "250 OK"):
			goto done
		}
	}
done:
	if gotServiceID == "" {
		return "", "", fmt.Errorf("overlay: no ServiceID in ADD_ONION reply")
	}
	if gotKey == "" {
		return "", "", fmt.Errorf("overlay: no PrivateKey in ADD_ONION reply")
	}
	return gotServiceID + ".onion", gotKey, nil
}

// parsePort extracts the numeric port from an "<host>:<port>" bind
// address, as used to derive the hidden-service target port from the
// front-end bind address.
func parsePort(bindAddress string) (uint16, error) {
	_, portStr, ok := strings.Cut(bindAddress, ":")
	if !ok {
		return 0, fmt.Errorf("overlay: invalid bind address %q", bindAddress)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("overlay: invalid port in %q: %w", bindAddress, err)
	}
	return uint16(port), nil
}
