package savesync

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/openlauncher/savesync/internal/gogsdk"
)

// PathVar is a known save-path template variable. The set is closed;
// anything else resolves to an Unresolved entry, never a hard failure.
type PathVar string

const (
	VarInstall         PathVar = "INSTALL"
	VarDocuments       PathVar = "DOCUMENTS"
	VarAppDataLocal    PathVar = "APPLICATION_DATA_LOCAL"
	VarAppDataLocalLow PathVar = "APPLICATION_DATA_LOCAL_LOW"
	VarAppDataRoaming  PathVar = "APPLICATION_DATA_ROAMING"
	VarSavedGames      PathVar = "SAVED_GAMES"
	VarAppSupport      PathVar = "APPLICATION_SUPPORT"
)

var placeholderPattern = regexp.MustCompile(`<\?(\w+)\?>`)

// ErrCompatPrefixRequired means a Windows-template path was resolved in
// compatibility mode without a prefix directory to anchor it.
var ErrCompatPrefixRequired = errors.New("compatibility prefix required to resolve save path")

// ResolveOptions describes the execution mode a template resolves under.
type ResolveOptions struct {
	InstallPath  string
	Native       bool   // native execution vs a Windows-compatibility prefix
	CompatPrefix string // prefix root, e.g. the virtual C: drive parent
	CompatUser   string // per-user directory inside the prefix
}

func nativeVarTable(installPath string) map[PathVar]string {
	home, _ := os.UserHomeDir()
	return map[PathVar]string{
		VarInstall:         installPath,
		VarDocuments:       filepath.Join(home, "Documents"),
		VarAppDataLocal:    filepath.Join(home, ".local", "share"),
		VarAppDataLocalLow: filepath.Join(home, ".local", "share"),
		VarAppDataRoaming:  filepath.Join(home, ".config"),
		VarSavedGames:      filepath.Join(home, ".local", "share"),
		// Not applicable outside macOS; substituted with nothing.
		VarAppSupport: "",
	}
}

func compatVarTable(installPath string) map[PathVar]string {
	return map[PathVar]string{
		VarInstall:         installPath,
		VarDocuments:       `%USERPROFILE%\Documents`,
		VarSavedGames:      `%USERPROFILE%\Saved Games`,
		VarAppDataLocal:    `%LOCALAPPDATA%`,
		VarAppDataLocalLow: `%APPDATA%\..\LocalLow`,
		VarAppDataRoaming:  `%APPDATA%`,
		VarAppSupport:      "",
	}
}

// ResolveSavePath substitutes every <?VAR?> placeholder in the location
// template and returns the resolved filesystem path plus the names of any
// unrecognized variables, which are left verbatim in the output.
func ResolveSavePath(location gogsdk.CloudSaveLocation, opts ResolveOptions) (string, []string, error) {
	var table map[PathVar]string
	if opts.Native {
		table = nativeVarTable(opts.InstallPath)
	} else {
		table = compatVarTable(opts.InstallPath)
	}

	var unresolved []string
	resolved := placeholderPattern.ReplaceAllStringFunc(location.Location, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := table[PathVar(name)]
		if !ok {
			slog.Warn("unknown save path variable", "variable", name, "location", location.Name)
			unresolved = append(unresolved, name)
			return name
		}
		return value
	})

	if opts.Native {
		resolved = os.ExpandEnv(resolved)
		if strings.HasPrefix(resolved, "~") {
			home, _ := os.UserHomeDir()
			resolved = strings.Replace(resolved, "~", home, 1)
		}
		return filepath.Clean(resolved), unresolved, nil
	}

	if opts.CompatPrefix == "" {
		return "", unresolved, ErrCompatPrefixRequired
	}

	user := opts.CompatUser
	if user == "" {
		user = os.Getenv("USER")
	}
	if user == "" {
		user = "steamuser"
	}

	userDir := filepath.Join(opts.CompatPrefix, "drive_c", "users", user)

	resolved = strings.ReplaceAll(resolved, `\`, string(filepath.Separator))
	resolved = strings.ReplaceAll(resolved, "%USERPROFILE%", userDir)
	resolved = strings.ReplaceAll(resolved, "%LOCALAPPDATA%", filepath.Join(userDir, "AppData", "Local"))
	resolved = strings.ReplaceAll(resolved, "%APPDATA%", filepath.Join(userDir, "AppData", "Roaming"))

	return filepath.Clean(resolved), unresolved, nil
}
