package client

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/zalando/go-keyring"
)

const DefaultKeyringService = "lumi"

var ErrNoCredentials = errors.New("no stored credentials")

// CredentialStore keeps sessions in the OS keyring, one entry per server URL.
type CredentialStore struct {
	service string
}

func NewCredentialStore(service string) *CredentialStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &CredentialStore{service: service}
}

func (cs *CredentialStore) Save(server string, session *Session) error {
	if session == nil || session.Token == "" {
		return errors.New("empty session")
	}
	raw, err := sonic.Marshal(session)
	if err != nil {
		return errors.New("encoding session error: " + err.Error())
	}
	if err = keyring.Set(cs.service, server, string(raw)); err != nil {
		return fmt.Errorf("storing session in keyring: %w", err)
	}
	return nil
}

func (cs *CredentialStore) Load(server string) (*Session, error) {
	raw, err := keyring.Get(cs.service, server)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("reading session from keyring: %w", err)
	}
	var session Session
	if err = sonic.UnmarshalString(raw, &session); err != nil {
		return nil, errors.New("decoding session error: " + err.Error())
	}
	return &session, nil
}

func (cs *CredentialStore) Delete(server string) error {
	err := keyring.Delete(cs.service, server)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNoCredentials
	}
	if err != nil {
		return fmt.Errorf("deleting session from keyring: %w", err)
	}
	return nil
}
