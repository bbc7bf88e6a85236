package qcli

import (
	"fmt"
	"strings"
)

// readOnlySafety is prepended to every prompt after validation. It runs
// after ValidatePrompt on purpose: the guardrail's own verb list would trip
// the forbidden-command check.
const readOnlySafety = `
CRITICAL READ-ONLY GUARDRAILS:
- STRICTLY READ-ONLY MODE: Only perform read, list, describe, and get operations
- FORBIDDEN OPERATIONS: No create, update, delete, modify, terminate, stop, start, reboot, or any write operations
- ALLOWED AWS CLI COMMANDS: Only describe-*, list-*, get-*, select, query operations
- FORBIDDEN AWS CLI COMMANDS: create-*, delete-*, update-*, modify-*, terminate-*, stop-*, start-*, reboot-*, put-*, post-*, patch-*
- SCRIPT RESTRICTIONS: Any scripts must only use read-only AWS CLI commands
- NO RESOURCE MODIFICATIONS: Do not modify, create, or delete any AWS resources
- ANALYSIS ONLY: Provide analysis and recommendations without implementing changes`

// fastAnalysisInstructions keep responses inside the per-attempt timeout.
const fastAnalysisInstructions = `
SPEED PRIORITY: You have a 5-minute time limit. Answer as quickly as possible using your existing AWS knowledge. Provide fast responses even if incomplete data - speed is more important than comprehensive results. Only create scripts as absolute last resort if you cannot provide any useful insights otherwise.`

// withGuardrails wraps a validated prompt with the read-only and speed
// preambles before it travels to the CLI.
func withGuardrails(prompt string) string {
	return readOnlySafety + "\n" + fastAnalysisInstructions + "\n\n" + prompt
}

func costOptimizationPrompt(query string) string {
	return fmt.Sprintf(`URGENT: I need raw, unstructured AWS account data for: %s

CRITICAL REQUIREMENTS - NO SUMMARIES, NO QUESTIONS:
- Run actual AWS CLI commands and scripts to gather live data
- Provide unprocessed output from AWS APIs
- Include all raw metrics, logs, and resource details
- Give me the messy, unfiltered data that I can process later

EXECUTE THESE ANALYSIS TASKS:

1. SCAN ACTUAL RESOURCES IN MY ACCOUNT:
   - Run describe-instances, describe-volumes, list-buckets commands
   - Get CloudWatch metrics for last 30 days (CPU, memory, network, storage usage)
   - List all EBS volumes and their attachment status
   - Check Lambda function invocation counts and memory usage
   - Identify unused elastic IPs, NAT gateways, load balancers

2. EXTRACT RAW UTILIZATION DATA:
   - Dump CloudWatch metrics in CSV/JSON format
   - Show actual usage patterns: hourly, daily, weekly trends
   - List exact idle time periods for each resource
   - Get billing data with line-item details
   - Export cost and usage reports data

3. PROVIDE UNPROCESSED OUTPUT:
   - Don't clean up or summarize the data
   - Include all resource IDs, timestamps, metric values
   - Show actual AWS CLI command outputs
   - Include any errors or warnings from AWS APIs
   - Give me tables, logs, JSON dumps - all the raw material

4. SPECIFIC COMMANDS TO RUN:
   `+"```bash"+`
   aws ec2 describe-instances --query 'Reservations[].Instances[].[InstanceId,InstanceType,State.Name,LaunchTime]'
   aws cloudwatch get-metric-statistics --namespace AWS/EC2 --metric-name CPUUtilization --start-time 30-days-ago
   aws s3api list-buckets --query 'Buckets[].[Name,CreationDate]'
   aws ce get-cost-and-usage --time-period Start=2025-01-01,End=2025-01-31 --granularity MONTHLY
   `+"```"+`

I want to see the actual data from these commands - the unstructured, raw output that contains real numbers, dates, and resource identifiers from MY specific AWS account.

Focus on data gathering, not analysis. Be a data collector, not a consultant.`, query)
}

func underutilizationPrompt(resourceType, timeRange string) string {
	return fmt.Sprintf(`Analyze my AWS account for %s underutilization over %s.

Provide SPECIFIC RAW DATA, not summaries:

1. LIST ALL UNDERUTILIZED %s RESOURCES:
   - Resource IDs and names
   - Current utilization metrics (exact percentages)
   - Monthly costs for each resource
   - Last access/usage dates
   - Recommended actions (specific instance types, storage classes, etc.)

2. COST IMPACT DATA:
   - Potential monthly savings per resource
   - Total waste amount in dollars
   - ROI of optimization actions

3. IMPLEMENTATION DETAILS:
   - Specific AWS CLI commands or API calls
   - Recommended instance families/sizes
   - Storage class recommendations
   - Scheduling recommendations

I need the actual data from my account analysis, not generic guidance or questions asking for more information.`,
		resourceType, timeRange, strings.ToUpper(resourceType))
}

func ec2AnalysisPrompt(timeRange string) string {
	return fmt.Sprintf(`EXECUTE EC2 DATA COLLECTION FOR UNDERUTILIZATION ANALYSIS - %s

RUN THESE COMMANDS AND DUMP RAW OUTPUT:

1. GET ALL EC2 INSTANCES:
aws ec2 describe-instances --output table
aws ec2 describe-instances --query 'Reservations[].Instances[].[InstanceId,InstanceType,State.Name,LaunchTime,Placement.AvailabilityZone,Platform,PublicIpAddress,PrivateIpAddress]' --output table

2. COLLECT CLOUDWATCH METRICS (RAW DATA):
aws cloudwatch get-metric-statistics --namespace AWS/EC2 --metric-name CPUUtilization --dimensions Name=InstanceId,Value=<EACH-INSTANCE-ID> --start-time %s-ago --end-time now --period 3600 --statistics Average,Maximum,Minimum
aws cloudwatch get-metric-statistics --namespace AWS/EC2 --metric-name NetworkIn --dimensions Name=InstanceId,Value=<EACH-INSTANCE-ID> --start-time %s-ago --end-time now --period 86400 --statistics Sum
aws cloudwatch get-metric-statistics --namespace AWS/EC2 --metric-name NetworkOut --dimensions Name=InstanceId,Value=<EACH-INSTANCE-ID> --start-time %s-ago --end-time now --period 86400 --statistics Sum

3. DUMP COST EXPLORER DATA:
aws ce get-cost-and-usage --time-period Start=2025-01-01,End=2025-01-31 --granularity DAILY --metrics BlendedCost,UsageQuantity --group-by Type=DIMENSION,Key=SERVICE Type=DIMENSION,Key=INSTANCE_TYPE
aws ce get-dimension-values --dimension SERVICE --time-period Start=2025-01-01,End=2025-01-31

4. EXTRACT DETAILED INSTANCE DATA:
aws ec2 describe-instance-attribute --instance-id <EACH-INSTANCE-ID> --attribute instanceType
aws ec2 describe-volumes --filters Name=attachment.instance-id,Values=<EACH-INSTANCE-ID>

PROVIDE EVERYTHING AS RAW COMMAND OUTPUT - don't analyze or summarize. I need the actual AWS API responses with timestamps, metrics, and resource identifiers exactly as returned by AWS.`,
		timeRange, timeRange, timeRange, timeRange)
}

const ebsAnalysisPrompt = `Analyze my AWS account EBS volumes for underutilization and optimization.

Provide SPECIFIC RAW DATA from my account:

1. UNDERUTILIZED EBS VOLUMES:
   - Volume IDs (vol-xxxxx)
   - Volume types (gp2, gp3, io1, etc.)
   - Current sizes and IOPS
   - Average utilization % and I/O patterns
   - Monthly costs per volume
   - Attachment status (attached/unattached)

2. OPTIMIZATION OPPORTUNITIES:
   - Unattached volumes (list volume IDs to delete)
   - Oversized volumes (current size → recommended size)
   - Type optimization (gp2 → gp3 conversions)
   - IOPS optimization opportunities

3. COST SAVINGS DATA:
   - Potential monthly savings per volume optimization
   - Total waste from unattached volumes
   - Storage class migration savings
   - Snapshot optimization opportunities

Provide actual volume data from my account analysis, not general recommendations.`

const s3AnalysisPrompt = `EXECUTE S3 DATA COLLECTION - DUMP ALL BUCKET INFORMATION

RUN THESE COMMANDS AND SHOW RAW OUTPUT:

1. LIST ALL BUCKETS WITH METADATA:
aws s3api list-buckets --output table
aws s3 ls --recursive --human-readable --summarize s3://bucket-name/ (for each bucket)
aws s3api get-bucket-location --bucket bucket-name (for each bucket)

2. GET STORAGE ANALYTICS FOR EACH BUCKET:
aws s3api get-bucket-inventory-configuration --bucket bucket-name
aws s3api list-object-versions --bucket bucket-name --max-items 1000
aws s3api get-bucket-lifecycle-configuration --bucket bucket-name

3. EXTRACT CLOUDWATCH S3 METRICS:
aws cloudwatch get-metric-statistics --namespace AWS/S3 --metric-name BucketSizeBytes --dimensions Name=BucketName,Value=bucket-name Name=StorageType,Value=StandardStorage --start-time 30-days-ago --end-time now --period 86400 --statistics Maximum
aws cloudwatch get-metric-statistics --namespace AWS/S3 --metric-name NumberOfObjects --dimensions Name=BucketName,Value=bucket-name Name=StorageType,Value=AllStorageTypes --start-time 30-days-ago --end-time now --period 86400 --statistics Maximum

4. COST AND USAGE DATA:
aws ce get-cost-and-usage --time-period Start=2025-01-01,End=2025-01-31 --granularity MONTHLY --metrics BlendedCost --group-by Type=DIMENSION,Key=SERVICE --filter file://s3-filter.json
aws s3api list-objects-v2 --bucket bucket-name --query 'Contents[?LastModified<` + "`2024-01-01`" + `]' --output table

5. ACCESS PATTERNS AND LOGS:
aws s3api get-bucket-logging --bucket bucket-name
aws s3api get-bucket-request-payment --bucket bucket-name
aws s3api get-bucket-notification-configuration --bucket bucket-name

PROVIDE RAW COMMAND OUTPUTS - don't clean up the data. I need the unprocessed bucket listings, object counts, timestamps, and size data exactly as AWS returns it.`

const lambdaAnalysisPrompt = `Find underutilized Lambda functions with low invocation rates, over-provisioned memory/timeout, and unused functions. Include function names, invocation counts, memory settings, and optimization recommendations.`

const rdsAnalysisPrompt = `Analyze underutilized RDS instances with low CPU/memory utilization, minimal connections, and right-sizing opportunities. Include instance identifiers, utilization metrics, and cost optimization estimates.`

// comprehensivePrompt scopes the analysis to exactly the named services so
// the assistant does not wander across the whole account.
func comprehensivePrompt(services []string) string {
	if len(services) == 0 {
		services = []string{"EC2", "EBS", "S3", "Lambda", "RDS"}
	}
	joined := strings.Join(services, ", ")

	if len(services) == 1 {
		return fmt.Sprintf("Focused AWS cost optimization analysis for %s ONLY. Show underutilized %s resources, right-sizing recommendations, cost savings estimates, and specific optimization recommendations. Do not analyze other AWS services.", joined, joined)
	}
	return fmt.Sprintf("AWS cost optimization analysis for these specific services ONLY: %s. Show underutilized resources, right-sizing recommendations, cost savings estimates, and priority recommendations organized by service. Focus exclusively on these %d services and do not analyze other AWS services.", joined, len(services))
}
