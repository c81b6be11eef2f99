// SPDX-License-Identifier: MPL-2.0

package settings

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

type (
	// Settings is the settings.xml model.
	Settings struct {
		XMLName         xml.Name  `xml:"settings"`
		LocalRepository string    `xml:"localRepository"`
		InteractiveMode *bool     `xml:"interactiveMode"`
		Offline         bool      `xml:"offline"`
		PluginGroups    []string  `xml:"pluginGroups>pluginGroup"`
		Servers         []Server  `xml:"servers>server"`
		Mirrors         []Mirror  `xml:"mirrors>mirror"`
		Profiles        []Profile `xml:"profiles>profile"`
		ActiveProfiles  []string  `xml:"activeProfiles>activeProfile"`
	}

	// Server is a <server> entry.
	Server struct {
		ID                   string `xml:"id"`
		Username             string `xml:"username"`
		Password             string `xml:"password"`
		PrivateKey           string `xml:"privateKey"`
		Passphrase           string `xml:"passphrase"`
		FilePermissions      string `xml:"filePermissions"`
		DirectoryPermissions string `xml:"directoryPermissions"`
	}

	// Mirror is a <mirror> entry.
	Mirror struct {
		ID       string `xml:"id"`
		Name     string `xml:"name"`
		URL      string `xml:"url"`
		MirrorOf string `xml:"mirrorOf"`
		Layout   string `xml:"layout"`
	}

	// Profile is a <profile> entry. Only activation by default is
	// interpreted; the rest belongs to the engine's model builder.
	Profile struct {
		ID         string     `xml:"id"`
		Activation Activation `xml:"activation"`
		Properties elementMap `xml:"properties"`
	}

	// Activation is the <activation> block of a profile.
	Activation struct {
		ActiveByDefault bool `xml:"activeByDefault"`
	}

	// Toolchains is the toolchains.xml model.
	Toolchains struct {
		XMLName    xml.Name    `xml:"toolchains"`
		Toolchains []Toolchain `xml:"toolchain"`
	}

	// Toolchain is a <toolchain> entry.
	Toolchain struct {
		Type          string     `xml:"type"`
		Provides      elementMap `xml:"provides"`
		Configuration elementMap `xml:"configuration"`
	}

	// Security is the settings-security.xml model.
	Security struct {
		XMLName    xml.Name `xml:"settingsSecurity"`
		Master     string   `xml:"master"`
		Relocation string   `xml:"relocation"`
	}

	// elementMap collects the text of free-form child elements
	// (<provides><version>21</version></provides>).
	elementMap map[string]string
)

// UnmarshalXML implements xml.Unmarshaler.
func (m *elementMap) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	out := make(map[string]string)
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var text string
			if err := d.DecodeElement(&text, &t); err != nil {
				return err
			}
			out[t.Name.Local] = strings.TrimSpace(text)
		case xml.EndElement:
			*m = out
			return nil
		}
	}
	*m = out
	return nil
}
