package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/common/validation"
	"github.com/spf13/cobra"
)

var (
	holidaysCompanyID  int64
	holidaysCalendarID int64
	holidaysFile       string
)

var holidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "Holiday calendar maintenance",
}

var importHolidaysCmd = &cobra.Command{
	Use:   "import",
	Short: "Import holidays from an .ics feed or a JSON list",
	RunE: func(cmd *cobra.Command, args []string) error {
		return importHolidays(cmd.Context())
	},
}

func importHolidays(ctx context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	inputs, err := readHolidayFile(holidaysFile)
	if err != nil {
		return err
	}

	deps, err := initializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close(context.Background())

	inserted, err := deps.Calendar.ImportHolidays(ctx, holidaysCompanyID, holidaysCalendarID, inputs)
	if err != nil {
		return err
	}

	fmt.Printf("calendar %d: received=%d inserted=%d\n", holidaysCalendarID, len(inputs), inserted)
	return nil
}

func readHolidayFile(path string) ([]calendar.HolidayInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".ics") {
		return calendar.ParseICS(f)
	}

	var dtos []calendar.HolidayDTO
	if err := json.NewDecoder(f).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	inputs := make([]calendar.HolidayInput, 0, len(dtos))
	for i, dto := range dtos {
		date, vErr := validation.ParseDate(fmt.Sprintf("holidays[%d].date", i), dto.Date)
		if vErr != nil {
			return nil, vErr
		}
		inputs = append(inputs, calendar.HolidayInput{Date: date, Name: dto.Name, IsOptional: dto.IsOptional})
	}
	return inputs, nil
}

func init() {
	importHolidaysCmd.Flags().Int64Var(&holidaysCompanyID, "company", 1, "company owning the calendar")
	importHolidaysCmd.Flags().Int64Var(&holidaysCalendarID, "calendar", 0, "holiday calendar id")
	importHolidaysCmd.Flags().StringVarP(&holidaysFile, "file", "f", "", "path to a .ics or .json file")
	_ = importHolidaysCmd.MarkFlagRequired("calendar")
	_ = importHolidaysCmd.MarkFlagRequired("file")

	holidaysCmd.AddCommand(importHolidaysCmd)
}
