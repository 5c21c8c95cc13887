package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("DFS_TEST_MODE") == "" {
			_ = os.Setenv("DFS_TEST_MODE", "1")
		}
	})
}
