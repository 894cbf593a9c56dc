package konf

import (
	"fmt"
	"os"
)

// WritePIDFile writes the current process's PID to path, the daemon's
// startup duty; RemovePIDFile undoes it on clean shutdown.
func WritePIDFile(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

func RemovePIDFile(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
