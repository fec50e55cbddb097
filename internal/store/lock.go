package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AcquireLock takes an advisory lock via exclusive file creation, guarding
// against overlapping runs on the same state file. The returned release
// function removes the lock. A held lock reports the owning pid so a stale
// file left by a crashed run can be identified and removed.
func AcquireLock(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			holder := "unknown pid"
			if data, rerr := os.ReadFile(path); rerr == nil {
				if pid := strings.TrimSpace(string(data)); pid != "" {
					holder = "pid " + pid
				}
			}
			return nil, fmt.Errorf("lock %s held by %s; remove the file if that process is gone", path, holder)
		}
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
	_ = f.Close()

	return func() {
		_ = os.Remove(path)
	}, nil
}
