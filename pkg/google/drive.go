package google

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/harrisonrobin/organizer/pkg/index"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const (
	appDataFolder = "appDataFolder"
	jsonMimeType  = "application/json"
)

// DriveRemote mirrors the state document as a single file in the app-private
// Drive folder.
type DriveRemote struct {
	srv      *drive.Service
	fileName string
	index    *index.FileIndex
}

func NewDriveRemoteWithService(srv *drive.Service, fileName string, idx *index.FileIndex) *DriveRemote {
	return &DriveRemote{srv: srv, fileName: fileName, index: idx}
}

// Pull downloads the document, or returns nil when it does not exist yet.
func (d *DriveRemote) Pull(ctx context.Context) ([]byte, error) {
	id, err := d.fileID(ctx)
	if err != nil || id == "" {
		return nil, err
	}

	resp, err := d.srv.Files.Get(id).Context(ctx).Download()
	if isNotFound(err) {
		d.forget()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to download %s: %w", d.fileName, err)
	}
	defer resp.Body.Close()
	d.remember(id)
	return io.ReadAll(resp.Body)
}

// Push uploads data, creating the file on first use.
func (d *DriveRemote) Push(ctx context.Context, data []byte) error {
	id, err := d.fileID(ctx)
	if err != nil {
		return err
	}

	if id != "" {
		_, err = d.srv.Files.Update(id, &drive.File{}).
			Media(bytes.NewReader(data), googleapi.ContentType(jsonMimeType)).
			Context(ctx).Do()
		if !isNotFound(err) {
			if err != nil {
				return fmt.Errorf("unable to update %s: %w", d.fileName, err)
			}
			d.remember(id)
			return nil
		}
		d.forget()
	}

	created, err := d.srv.Files.Create(&drive.File{
		Name:     d.fileName,
		Parents:  []string{appDataFolder},
		MimeType: jsonMimeType,
	}).Media(bytes.NewReader(data), googleapi.ContentType(jsonMimeType)).
		Fields("id").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", d.fileName, err)
	}
	d.remember(created.Id)
	return nil
}

// fileID consults the local index first and falls back to searching the folder.
func (d *DriveRemote) fileID(ctx context.Context) (string, error) {
	if d.index != nil {
		if id, ok := d.index.Lookup(d.fileName); ok {
			return id, nil
		}
	}

	list, err := d.srv.Files.List().
		Spaces(appDataFolder).
		Q(fmt.Sprintf("name = '%s' and trashed = false", d.fileName)).
		Fields("files(id, name)").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to search for %s: %w", d.fileName, err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	d.remember(list.Files[0].Id)
	return list.Files[0].Id, nil
}

func (d *DriveRemote) remember(id string) {
	if d.index == nil {
		return
	}
	d.index.Remember(d.fileName, id)
	if err := d.index.Save(); err != nil {
		log.Printf("Warning: failed to save Drive file index: %v", err)
	}
}

func (d *DriveRemote) forget() {
	if d.index == nil {
		return
	}
	d.index.Forget(d.fileName)
	if err := d.index.Save(); err != nil {
		log.Printf("Warning: failed to save Drive file index: %v", err)
	}
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
