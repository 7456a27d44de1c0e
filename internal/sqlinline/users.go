package sqlinline

const QSelectUserByID = `--sql 3f1c2b6a-8d4e-4f0a-9b72-1c5e8a94d310
select id, email, name, credits, plan, subscription_status,
       current_period_start, current_period_end, cancel_at_period_end,
       monthly_queries, total_queries, last_reset_date,
       is_deleted, created_at, updated_at
from users
where id = $1::uuid and is_deleted = false;
`

// Free-plan credits floor at zero inside the statement so concurrent debits
// can never drive the balance negative, whatever the callers saw beforehand.
const QDebitUser = `--sql 7a9e4d21-03bf-47c8-8e5a-6f2d91c0b845
update users
set credits = case when plan = 'free' then greatest(0, credits - $2::int) else credits end,
    monthly_queries = monthly_queries + 1,
    total_queries = total_queries + 1,
    updated_at = now()
where id = $1::uuid and is_deleted = false
returning credits, monthly_queries, total_queries;
`

const QUpdateUserEntitlement = `--sql c4d80f5e-62aa-49d3-b1f7-e89b3a7c2d16
update users
set plan = $2::text,
    credits = $3::int,
    subscription_status = $4::text,
    current_period_start = case when $5::timestamptz is null then current_period_start else now() end,
    current_period_end = $5::timestamptz,
    updated_at = now()
where id = $1::uuid
returning id, email, name, credits, plan, subscription_status,
          current_period_start, current_period_end, cancel_at_period_end,
          monthly_queries, total_queries, last_reset_date,
          is_deleted, created_at, updated_at;
`
