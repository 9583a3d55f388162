//go:build linux

package sys

import (
	"net"
	"net/netip"
	"unsafe"

	"golang.org/x/sys/unix"
)

// AddrPortToRawSockaddrAny
// encodes ap into a kernel sockaddr, returning it with its length.
// IPv4-mapped IPv6 addresses are encoded as AF_INET.
func AddrPortToRawSockaddrAny(ap netip.AddrPort) (name *unix.RawSockaddrAny, nameLen uint32, err error) {
	addr := ap.Addr()
	if !addr.IsValid() {
		err = &net.AddrError{Err: "invalid address", Addr: ap.String()}
		return
	}
	name = &unix.RawSockaddrAny{}
	if addr.Is4() || addr.Is4In6() {
		raw := (*unix.RawSockaddrInet4)(unsafe.Pointer(name))
		raw.Family = unix.AF_INET
		p := (*[2]byte)(unsafe.Pointer(&raw.Port))
		p[0] = byte(ap.Port() >> 8)
		p[1] = byte(ap.Port())
		raw.Addr = addr.Unmap().As4()
		nameLen = uint32(unsafe.Sizeof(*raw))
		return
	}
	raw := (*unix.RawSockaddrInet6)(unsafe.Pointer(name))
	raw.Family = unix.AF_INET6
	p := (*[2]byte)(unsafe.Pointer(&raw.Port))
	p[0] = byte(ap.Port() >> 8)
	p[1] = byte(ap.Port())
	raw.Addr = addr.As16()
	if zone := addr.Zone(); zone != "" {
		if ifi, ifiErr := net.InterfaceByName(zone); ifiErr == nil {
			raw.Scope_id = uint32(ifi.Index)
		}
	}
	nameLen = uint32(unsafe.Sizeof(*raw))
	return
}

// RawSockaddrAnyToAddrPort
// decodes an AF_INET or AF_INET6 sockaddr filled by the kernel.
func RawSockaddrAnyToAddrPort(rsa *unix.RawSockaddrAny) (netip.AddrPort, error) {
	switch rsa.Addr.Family {
	case unix.AF_INET:
		pp := (*unix.RawSockaddrInet4)(unsafe.Pointer(rsa))
		p := (*[2]byte)(unsafe.Pointer(&pp.Port))
		port := uint16(p[0])<<8 | uint16(p[1])
		return netip.AddrPortFrom(netip.AddrFrom4(pp.Addr), port), nil
	case unix.AF_INET6:
		pp := (*unix.RawSockaddrInet6)(unsafe.Pointer(rsa))
		p := (*[2]byte)(unsafe.Pointer(&pp.Port))
		port := uint16(p[0])<<8 | uint16(p[1])
		addr := netip.AddrFrom16(pp.Addr)
		if pp.Scope_id != 0 {
			if ifi, ifiErr := net.InterfaceByIndex(int(pp.Scope_id)); ifiErr == nil {
				addr = addr.WithZone(ifi.Name)
			}
		}
		return netip.AddrPortFrom(addr, port), nil
	}
	return netip.AddrPort{}, unix.EAFNOSUPPORT
}

// Family
// returns AF_INET or AF_INET6 for ap.
func Family(ap netip.AddrPort) int {
	if addr := ap.Addr(); addr.Is4() || addr.Is4In6() {
		return unix.AF_INET
	}
	return unix.AF_INET6
}
