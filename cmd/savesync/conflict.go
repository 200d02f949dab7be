package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/openlauncher/savesync/internal/savesync"
)

// promptResolver asks on stdin which side wins a save conflict.
type promptResolver struct{}

func (promptResolver) Resolve(game savesync.GameInfo, location string) savesync.PreferredAction {
	fmt.Printf("%s both local and cloud saves changed for %s (%s)\n", yellow("conflict:"), game.AppID, location)
	fmt.Print("keep [l]ocal (upload), keep [c]loud (download), or [s]kip? ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return savesync.PreferNone
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "l", "local", "upload":
		return savesync.PreferUpload
	case "c", "cloud", "download":
		return savesync.PreferDownload
	default:
		return savesync.PreferNone
	}
}
