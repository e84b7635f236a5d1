package validators

import (
	"net"
	"net/mail"
	"strings"
)

// DomainChecker verifies that an e-mail domain can receive mail.
type DomainChecker struct {
	LookupMX func(name string) ([]*net.MX, error)
	LookupIP func(host string) ([]net.IP, error)
}

var defaultChecker = DomainChecker{
	LookupMX: net.LookupMX,
	LookupIP: net.LookupIP,
}

func IsEmailDomainValid(email string) bool {
	return defaultChecker.Valid(email)
}

func (d DomainChecker) Valid(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}

	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]

	if mx, err := d.LookupMX(domain); err == nil && len(mx) > 0 {
		return true
	}

	if ips, err := d.LookupIP(domain); err == nil && len(ips) > 0 {
		return true
	}

	return false
}
