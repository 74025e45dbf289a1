package model

// CapacityRow is one staff row of the monthly schedule. Cells[0] is day 1;
// a cell holds assigned hours or anything else for a day off.
type CapacityRow struct {
	StaffName string
	Cells     []string
}
