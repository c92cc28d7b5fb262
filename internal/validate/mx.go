package validate

import (
	"github.com/miekg/dns"
)

// mxResolvers are queried in order until one answers.
var mxResolvers = []string{"8.8.8.8:53", "1.1.1.1:53"}

// HasMXRecords reports whether the domain publishes at least one MX record.
// Resolver failures count as no-records rather than an error; MX checking is
// a best-effort filter, not a delivery guarantee.
func HasMXRecords(domain string) bool {
	if domain == "" {
		return false
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	msg.RecursionDesired = true

	client := new(dns.Client)
	for _, server := range mxResolvers {
		resp, _, err := client.Exchange(msg, server)
		if err != nil {
			continue
		}
		if resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0 {
			return true
		}
	}
	return false
}
