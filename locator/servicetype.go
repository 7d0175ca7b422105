// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package locator

import (
	"github.com/jcodagnone/cajero/utils/textutils"
)

// ServiceType is the closed set of service point categories.
type ServiceType string

const (
	ServiceATM             ServiceType = "atm"
	ServiceBranch          ServiceType = "branch"
	ServicePaymentTerminal ServiceType = "paymentTerminal"
	ServiceDigitalCenter   ServiceType = "digitalCenter"
	ServiceCashIn          ServiceType = "cashIn"
	ServiceOther           ServiceType = "other"
)

// ServiceTypes lists every canonical value, "other" last.
var ServiceTypes = []ServiceType{
	ServiceATM,
	ServiceBranch,
	ServicePaymentTerminal,
	ServiceDigitalCenter,
	ServiceCashIn,
	ServiceOther,
}

// serviceTypeCodes maps folded provider vocabulary (see textutils.FoldKey) to
// canonical types. Azerbaijani spellings come from the Kapital Bank datasets.
var serviceTypeCodes = map[string]ServiceType{
	"atm":              ServiceATM,
	"atms":             ServiceATM,
	"bankomat":         ServiceATM,
	"bankomatlar":      ServiceATM,
	"branch":           ServiceBranch,
	"branches":         ServiceBranch,
	"filial":           ServiceBranch,
	"filiallar":        ServiceBranch,
	"office":           ServiceBranch,
	"paymentterminal":  ServicePaymentTerminal,
	"paymentterminals": ServicePaymentTerminal,
	"terminal":         ServicePaymentTerminal,
	"odenisterminali":  ServicePaymentTerminal,
	"digitalcenter":    ServiceDigitalCenter,
	"digitalcentre":    ServiceDigitalCenter,
	"reqemsalmerkez":   ServiceDigitalCenter,
	"cashin":           ServiceCashIn,
	"cashinmachine":    ServiceCashIn,
	"nagdmedaxil":      ServiceCashIn,
	"other":            ServiceOther,
}

// ParseServiceType maps a provider type code to its canonical ServiceType.
// Unknown or empty codes return ServiceOther and false.
func ParseServiceType(code string) (ServiceType, bool) {
	if st, ok := serviceTypeCodes[textutils.FoldKey(code)]; ok {
		return st, true
	}

	return ServiceOther, false
}
