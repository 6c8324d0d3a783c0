package ui

import (
	"os"
	"os/exec"
	"strings"
)

// NotifyError sends a critical desktop notification. The daemon runs as
// root outside any display session, so the notification has to be sent
// as the user owning the current display.
func NotifyError(title string, text string) {
	display, exists := os.LookupEnv("DISPLAY")
	if !exists {
		Warning("Cannot send notification, missing env variable 'DISPLAY'!")
		return
	}

	user := displayUser(display)
	if len(user) <= 0 {
		Warning("Cannot send notification, unable to detect user of current display session")
		return
	}

	output, err := exec.Command("id", "-u", user).Output()
	userId := strings.TrimSpace(string(output))
	if err != nil || len(userId) <= 0 {
		Warning("Cannot send notification, unable to detect user id of %s", user)
		return
	}

	cmd := exec.Command("sudo", "-u", user,
		"DISPLAY="+display,
		"DBUS_SESSION_BUS_ADDRESS=unix:path=/run/user/"+userId+"/bus",
		"notify-send",
		"-a", "fanctrl",
		"-u", "critical",
		"-i", "dialog-error",
		title, text,
	)
	if err := cmd.Run(); err != nil {
		Error("Error sending notification: %v", err)
	}
}

// displayUser resolves the login session owning the given display
func displayUser(display string) string {
	output, err := exec.Command("who").Output()
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(output), "\n") {
		if strings.Contains(line, display) {
			return strings.TrimSpace(strings.Fields(line)[0])
		}
	}
	return ""
}
