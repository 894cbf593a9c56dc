package shell

import "os"

// lookupEnv is the last link of the variable lookup-order chain.
func lookupEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}
