package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/leave-management/internal/core/actor"
	calendarDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/calendar"
	employeeDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/employee"
	policyDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/policy"
	"github.com/frahmantamala/leave-management/internal/policy"
	"github.com/spf13/cobra"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var seedCompanyID int64

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed one company with employees, a leave type, a default policy and a holiday calendar for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		if err := db.Transaction(func(tx *gorm.DB) error {
			return seedCompany(tx, seedCompanyID)
		}); err != nil {
			log.Fatalf("failed to seed company %d: %v", seedCompanyID, err)
		}

		fmt.Println("Seeded company:", seedCompanyID)
	},
}

func init() {
	seedCmd.Flags().Int64Var(&seedCompanyID, "company", 1, "company id to seed")
}

func seedCompany(tx *gorm.DB, companyID int64) error {
	joined := time.Date(2022, time.January, 3, 0, 0, 0, 0, time.UTC)
	engineering := "Engineering"
	people := "People"

	employees := []employeeDatamodel.Employee{
		{CompanyID: companyID, Name: "Dana Employee", Department: &engineering, DateOfJoining: joined, IsActive: true},
		{CompanyID: companyID, Name: "Mira Manager", Department: &engineering, DateOfJoining: joined, IsActive: true},
		{CompanyID: companyID, Name: "Hana HR", Department: &people, DateOfJoining: joined, IsActive: true},
		{CompanyID: companyID, Name: "Ari Admin", Department: &people, DateOfJoining: joined, IsActive: true},
	}
	for i := range employees {
		e := &employees[i]
		if err := tx.Where("company_id = ? AND name = ?", companyID, e.Name).FirstOrCreate(e).Error; err != nil {
			return fmt.Errorf("employee %s: %w", e.Name, err)
		}
		fmt.Printf("Seeded employee: %s (id=%d)\n", e.Name, e.ID)
	}

	leaveTypes := []policyDatamodel.LeaveType{
		{CompanyID: companyID, Code: "AL", Name: "Annual Leave", IsActive: true},
		{CompanyID: companyID, Code: "SL", Name: "Sick Leave", IsActive: true},
	}
	for i := range leaveTypes {
		lt := &leaveTypes[i]
		if err := tx.Where("company_id = ? AND code = ?", companyID, lt.Code).FirstOrCreate(lt).Error; err != nil {
			return fmt.Errorf("leave type %s: %w", lt.Code, err)
		}
		fmt.Printf("Seeded leave type: %s (id=%d)\n", lt.Code, lt.ID)
	}

	p := policyDatamodel.LeavePolicy{
		CompanyID:     companyID,
		Name:          "Default",
		EffectiveFrom: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Config: datatypes.NewJSONType(policyDatamodel.Config{
			Sandwich:      false,
			Proration:     true,
			WorkflowRoles: []actor.Role{actor.RoleManager, actor.RoleHR},
		}),
	}
	if err := tx.Where("company_id = ? AND name = ?", companyID, p.Name).FirstOrCreate(&p).Error; err != nil {
		return fmt.Errorf("policy: %w", err)
	}

	allocations := map[string]float64{"AL": 12, "SL": 6}
	for _, lt := range leaveTypes {
		m := policyDatamodel.LeavePolicyMapping{
			CompanyID:        companyID,
			PolicyID:         p.ID,
			LeaveTypeID:      lt.ID,
			Unit:             string(policy.UnitDay),
			AnnualAllocation: allocations[lt.Code],
			IsActive:         true,
		}
		err := tx.Omit("Policy").
			Where("company_id = ? AND policy_id = ? AND leave_type_id = ? AND employee_id IS NULL AND department IS NULL AND designation IS NULL",
				companyID, p.ID, lt.ID).
			FirstOrCreate(&m).Error
		if err != nil {
			return fmt.Errorf("mapping for %s: %w", lt.Code, err)
		}
	}
	fmt.Println("Seeded default policy and company wide mappings")

	cal := calendarDatamodel.HolidayCalendar{
		CompanyID:   companyID,
		Name:        "Head Office",
		WeekendDays: datatypes.JSONSlice[int]{5, 6},
		IsActive:    true,
	}
	if err := tx.Where("company_id = ? AND name = ?", companyID, cal.Name).FirstOrCreate(&cal).Error; err != nil {
		return fmt.Errorf("calendar: %w", err)
	}
	for _, e := range employees {
		link := calendarDatamodel.EmployeeHolidayCalendar{EmployeeID: e.ID, CalendarID: cal.ID}
		if err := tx.Where(&link).FirstOrCreate(&link).Error; err != nil {
			return fmt.Errorf("calendar link for %s: %w", e.Name, err)
		}
	}
	fmt.Printf("Seeded holiday calendar: %s (id=%d)\n", cal.Name, cal.ID)

	return nil
}
