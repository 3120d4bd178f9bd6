package classpath

import (
	"bufio"
	"bytes"
	"strings"
)

// bundleInfo is the OSGi identity read from META-INF/MANIFEST.MF.
type bundleInfo struct {
	SymbolicName string
	Version      string
}

// parseManifest reads the Bundle-SymbolicName and Bundle-Version headers.
// Continuation lines start with a single space.
func parseManifest(data []byte) bundleInfo {
	headers := make(map[string]string)
	var key string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, " ") && key != "" {
			headers[key] += line[1:]
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			key = ""
			continue
		}
		key = strings.TrimSpace(k)
		headers[key] = strings.TrimSpace(v)
	}
	name := headers["Bundle-SymbolicName"]
	if i := strings.IndexByte(name, ';'); i >= 0 {
		name = name[:i]
	}
	return bundleInfo{
		SymbolicName: strings.TrimSpace(name),
		Version:      strings.TrimSpace(headers["Bundle-Version"]),
	}
}
