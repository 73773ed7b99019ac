package sync

// AppIcon is one installed application's manifest entry, streamed to the
// peer one envelope per app.
type AppIcon struct {
	AppName        string `json:"appName"`
	PackageName    string `json:"packageName"`
	PackageVersion string `json:"packageVersion"`
	AppIconBase64  string `json:"appIconBase64"`
}

// AppIconProvider enumerates installed applications with rendered icons.
type AppIconProvider interface {
	InstalledApps() ([]AppIcon, error)
}

// Notification is a posted notification, flattened by the listener glue
// before it reaches the core.
type Notification struct {
	AppName     string `json:"appName"`
	PackageName string `json:"packageName"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	PostTime    int64  `json:"postTime"`
}

// NotificationRemoved identifies a dismissed notification.
type NotificationRemoved struct {
	ID  int    `json:"id"`
	Key string `json:"key"`
}

// NotificationSource enumerates currently active notifications.
type NotificationSource interface {
	Active() ([]Notification, error)
}

// Clipboard abstracts the system clipboard for both directions.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}
