package mock

import (
	"os"
	"path/filepath"
)

var sampleAddons = map[string]int{
	"EssentialsX-2.20.1.jar": 1 << 20,
	"WorldEdit-7.3.0.jar":    3<<20 + 1<<19,
	"LuckPerms-5.4.jar":      800 << 10,
	"README.txt":             64,
}

// SeedAddonDir creates a temporary addon directory and server.properties for
// mock mode. The caller removes the returned directory.
func SeedAddonDir() (serverPath, modsPath string, err error) {
	serverPath, err = os.MkdirTemp("", "craftpanel-mock-")
	if err != nil {
		return "", "", err
	}
	modsPath = filepath.Join(serverPath, "plugins")
	if err := os.Mkdir(modsPath, 0o755); err != nil {
		os.RemoveAll(serverPath)
		return "", "", err
	}
	for name, size := range sampleAddons {
		if err := os.WriteFile(filepath.Join(modsPath, name), make([]byte, size), 0o644); err != nil {
			os.RemoveAll(serverPath)
			return "", "", err
		}
	}
	props := []byte("#Minecraft server properties\nmotd=Mock Server\nmax-players=20\n")
	if err := os.WriteFile(filepath.Join(serverPath, "server.properties"), props, 0o644); err != nil {
		os.RemoveAll(serverPath)
		return "", "", err
	}
	return serverPath, modsPath, nil
}
