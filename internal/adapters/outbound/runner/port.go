package runner

import (
	"fmt"
	"net"
	"strconv"
)

const maxPortAttempts = 100

// FindFreePort probes for a bindable TCP port starting at preferred and
// incrementing, so concurrent runs sharing the port space never pick a port
// a live process already holds.
func FindFreePort(preferred int) (int, error) {
	if preferred <= 0 || preferred > 65535 {
		preferred = 8080
	}
	for i := 0; i < maxPortAttempts; i++ {
		port := preferred + i
		if port > 65535 {
			break
		}
		ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			continue
		}
		ln.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no free port in range %d-%d", preferred, preferred+maxPortAttempts-1)
}
