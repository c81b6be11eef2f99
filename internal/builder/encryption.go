// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/invowk/m3bridge/internal/cipher"
	"github.com/invowk/m3bridge/internal/cli"
	"github.com/invowk/m3bridge/internal/settings"
	"github.com/invowk/m3bridge/pkg/types"
)

func encryption(_ context.Context, s *buildState) error {
	switch {
	case s.cl.Has(cli.EncryptMasterPassword):
		passwd, err := s.password(cli.EncryptMasterPassword, "Master password: ")
		if err != nil {
			return err
		}
		enc, err := s.b.Cipher.EncryptAndDecorate(passwd, cipher.MasterPasswordKey)
		if err != nil {
			return fmt.Errorf("encrypt master password: %w", err)
		}
		fmt.Fprintln(s.b.Output.Stdout(), enc)
		return &ExitError{Code: types.ExitSuccess}

	case s.cl.Has(cli.EncryptPassword):
		passwd, err := s.password(cli.EncryptPassword, "Password: ")
		if err != nil {
			return err
		}
		master, err := s.masterPassword()
		if err != nil {
			return err
		}
		enc, err := s.b.Cipher.EncryptAndDecorate(passwd, master)
		if err != nil {
			return fmt.Errorf("encrypt password: %w", err)
		}
		fmt.Fprintln(s.b.Output.Stdout(), enc)
		return &ExitError{Code: types.ExitSuccess}
	}
	return nil
}

// password returns the option value, prompting on Stdin when it is empty.
func (s *buildState) password(option, prompt string) (string, error) {
	if v := s.cl.Value(option); v != "" {
		return v, nil
	}
	fmt.Fprint(s.b.Output.Stdout(), prompt)
	line, err := bufio.NewReader(s.b.Stdin).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" && err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return line, nil
}

// masterPassword decrypts the master password from the settings-security
// file named by the settings.security property or the default location.
func (s *buildState) masterPassword() (string, error) {
	file := settings.ExpandHome(settings.DefaultSecurityFile, s.userHome)
	if v := s.b.RuntimeProperties.Value(settings.SecurityLocationProperty); v != "" {
		file = settings.ExpandHome(v, s.userHome)
	}

	sec, err := settings.ReadSecurity(file)
	if err != nil {
		return "", fmt.Errorf("read settings security %s: %w", file, err)
	}
	if sec == nil || strings.TrimSpace(sec.Master) == "" {
		return "", fmt.Errorf("%w in the setting security file: %s", ErrMasterPasswordNotSet, file)
	}
	master, err := s.b.Cipher.DecryptDecorated(strings.TrimSpace(sec.Master), cipher.MasterPasswordKey)
	if err != nil {
		return "", fmt.Errorf("decrypt master password: %w", err)
	}
	return master, nil
}
