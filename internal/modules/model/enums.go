package model

// SourceType records the provenance of a catalog artifact installed
// into a tenant.
type SourceType string

const (
	SourceMarketplace SourceType = "MARKETPLACE"
	SourceProvider    SourceType = "PROVIDER"
	SourceTenant      SourceType = "TENANT"
	SourceSystem      SourceType = "SYSTEM"
)

func (s SourceType) Valid() bool {
	switch s {
	case SourceMarketplace, SourceProvider, SourceTenant, SourceSystem:
		return true
	}
	return false
}

// DataType is the semantic shape of a stored field value. It says
// nothing about rendering; that is ElementType's job.
type DataType string

const (
	DataText         DataType = "TEXT"
	DataNumber       DataType = "NUMBER"
	DataBoolean      DataType = "BOOLEAN"
	DataDate         DataType = "DATE"
	DataDatetime     DataType = "DATETIME"
	DataSingleSelect DataType = "SINGLESELECT"
	DataMultiSelect  DataType = "MULTISELECT"
)

func (d DataType) Valid() bool {
	switch d {
	case DataText, DataNumber, DataBoolean, DataDate, DataDatetime, DataSingleSelect, DataMultiSelect:
		return true
	}
	return false
}

// ElementType is the UI widget a field renders as. ACTION elements
// store no data.
type ElementType string

const (
	ElementText        ElementType = "TEXT"
	ElementTextarea    ElementType = "TEXTAREA"
	ElementDate        ElementType = "DATE"
	ElementDatetime    ElementType = "DATETIME"
	ElementSelect      ElementType = "SELECT"
	ElementMultiSelect ElementType = "MULTISELECT"
	ElementAction      ElementType = "ACTION"
)

func (e ElementType) Valid() bool {
	switch e {
	case ElementText, ElementTextarea, ElementDate, ElementDatetime, ElementSelect, ElementMultiSelect, ElementAction:
		return true
	}
	return false
}

// AlignedDataType checks the data/element type pairing rules: ACTION
// carries no data type, SELECT stores SINGLESELECT values, MULTISELECT
// stores MULTISELECT values.
func AlignedDataType(element ElementType, data *DataType) bool {
	switch element {
	case ElementAction:
		return data == nil
	case ElementSelect:
		return data != nil && *data == DataSingleSelect
	case ElementMultiSelect:
		return data != nil && *data == DataMultiSelect
	default:
		return data != nil && data.Valid()
	}
}
