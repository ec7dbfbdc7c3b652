package google

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/organizer/pkg/auth"
	"github.com/harrisonrobin/organizer/pkg/index"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// NewDriveRemote builds a Drive mirror for fileName from the saved token.
func NewDriveRemote(ctx context.Context, fileName string, idx *index.FileIndex) (*DriveRemote, error) {
	client, err := auth.TokenClient(ctx)
	if err != nil {
		return nil, err
	}
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}
	return NewDriveRemoteWithService(srv, fileName, idx), nil
}

// NewCalendarBusy builds a busy-time source for the named calendar. An empty
// name uses the primary calendar.
func NewCalendarBusy(ctx context.Context, calendarName string) (*CalendarBusy, error) {
	client, err := auth.TokenClient(ctx)
	if err != nil {
		return nil, err
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Calendar client: %w", err)
	}

	calendarID := "primary"
	if calendarName != "" {
		calendarList, err := srv.CalendarList.List().Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
		}
		calendarID = ""
		for _, item := range calendarList.Items {
			if item.Summary == calendarName {
				calendarID = item.Id
				break
			}
		}
		if calendarID == "" {
			return nil, fmt.Errorf("calendar '%s' not found", calendarName)
		}
	}
	return &CalendarBusy{srv: srv, calendarID: calendarID}, nil
}
