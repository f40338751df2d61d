package importer

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

type venuesDoc struct {
	XMLName xml.Name   `xml:"venues"`
	Venues  []venueXML `xml:"venue"`
}

type venueXML struct {
	ID    string `xml:"id,attr"`
	NameC string `xml:"venuec"`
	NameE string `xml:"venuee"`
}

type eventsDoc struct {
	XMLName xml.Name   `xml:"events"`
	Events  []eventXML `xml:"event"`
}

type eventXML struct {
	ID       string `xml:"id,attr"`
	VenueID  string `xml:"venueid"`
	TitleC   string `xml:"titlec"`
	TitleE   string `xml:"titlee"`
	DescE    string `xml:"desce"`
	PreDateE string `xml:"predateE"`
}

// Source yields the two XML documents a run consumes.
type Source interface {
	Venues(ctx context.Context) (io.ReadCloser, error)
	Events(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads both documents from the local filesystem.
type FileSource struct {
	VenuesPath string
	EventsPath string
}

func (s FileSource) Venues(context.Context) (io.ReadCloser, error) { return os.Open(s.VenuesPath) }
func (s FileSource) Events(context.Context) (io.ReadCloser, error) { return os.Open(s.EventsPath) }

func parseVenues(r io.Reader) ([]venueXML, error) {
	var doc venuesDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse venues xml: %w", err)
	}
	for i := range doc.Venues {
		v := &doc.Venues[i]
		v.ID = strings.TrimSpace(v.ID)
		v.NameC = strings.TrimSpace(v.NameC)
		v.NameE = strings.TrimSpace(v.NameE)
	}
	return doc.Venues, nil
}

func parseEvents(r io.Reader) ([]eventXML, error) {
	var doc eventsDoc
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse events xml: %w", err)
	}
	for i := range doc.Events {
		e := &doc.Events[i]
		e.ID = strings.TrimSpace(e.ID)
		e.VenueID = strings.TrimSpace(e.VenueID)
		e.TitleC = strings.TrimSpace(e.TitleC)
		e.TitleE = strings.TrimSpace(e.TitleE)
		e.DescE = strings.TrimSpace(e.DescE)
		e.PreDateE = strings.TrimSpace(e.PreDateE)
	}
	return doc.Events, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
