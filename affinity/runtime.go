package affinity

import "runtime"

func numCPU() int {
	return runtime.NumCPU()
}
