package calendar_test

import (
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal/calendar"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const holidayFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//leave//holidays//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:eid-1\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20240410\r\n" +
	"DTEND;VALUE=DATE:20240412\r\n" +
	"SUMMARY:Eid al-Fitr\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:may-day\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20240501\r\n" +
	"SUMMARY:Labour Day\r\n" +
	"CATEGORIES:OPTIONAL\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

var _ = Describe("ParseICS", func() {
	It("should expand multi-day events with an exclusive end", func() {
		inputs, err := calendar.ParseICS(strings.NewReader(holidayFeed))
		Expect(err).NotTo(HaveOccurred())
		Expect(inputs).To(HaveLen(3))

		Expect(inputs[0].Date).To(Equal(time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)))
		Expect(inputs[0].Name).To(Equal("Eid al-Fitr"))
		Expect(inputs[1].Date).To(Equal(time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC)))
		Expect(inputs[1].IsOptional).To(BeFalse())
	})

	It("should flag events in the OPTIONAL category", func() {
		inputs, err := calendar.ParseICS(strings.NewReader(holidayFeed))
		Expect(err).NotTo(HaveOccurred())
		Expect(inputs[2].Name).To(Equal("Labour Day"))
		Expect(inputs[2].IsOptional).To(BeTrue())
	})

	It("should fail on a malformed feed", func() {
		_, err := calendar.ParseICS(strings.NewReader("not a calendar"))
		Expect(err).To(HaveOccurred())
	})
})
